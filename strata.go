// Package strata composes an ordered chain of heterogeneous cache tiers
// under one logical cache name, with read-through promotion and per-tier
// fault isolation.
package strata

import (
	"context"
	"errors"
)

// ErrNoNativeCache is returned by Composite.Native: a composite of
// heterogeneous tiers has no single underlying cache handle.
var ErrNoNativeCache = errors.New("strata: composite cache has no native handle")

// Tier is one backing cache in an ordered chain. Tiers are supplied by
// providers and may be shared across multiple composites; a tier's own
// expiry, eviction and concurrency guarantees are opaque to this package.
type Tier interface {
	// Set stores an item in the tier. TTL, if any, is the tier's own policy.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes an item from the tier.
	Delete(ctx context.Context, key string) error

	// Flush clears all items from the tier.
	Flush(ctx context.Context) error

	// Close releases any resources used by the tier.
	Close() error
}

// Lookuper is the optional raw-read capability of a Tier. A lookup never
// invokes a value loader. Tiers without this capability are skipped during
// the composite's promotion scan but still receive writes and evictions.
type Lookuper interface {
	Lookup(ctx context.Context, key string) ([]byte, bool, error)
}

// Loader produces the value for a key that no tier currently holds.
type Loader func(ctx context.Context, key string) ([]byte, error)

// ReadThrough is the optional load-on-miss capability of a Tier. A tier
// implementing it may invoke the loader and populate itself on its own
// miss path.
type ReadThrough interface {
	GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error)
}

// Provider resolves logical cache names to tiers. A provider that does not
// recognise a name reports false; that is a normal "no contribution"
// signal, not an error.
type Provider interface {
	// Resolve returns the tier backing the named cache, if this provider
	// knows the name.
	Resolve(name string) (Tier, bool)

	// Names lists the cache names this provider advertises.
	Names() []string
}
