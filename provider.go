package strata

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// StaticProvider resolves names from explicit registrations.
type StaticProvider struct {
	mu    sync.RWMutex
	tiers map[string]Tier
}

// NewStaticProvider creates an empty provider; register tiers with Register.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{tiers: make(map[string]Tier)}
}

// Register binds a tier to a cache name, replacing any previous binding.
func (p *StaticProvider) Register(name string, tier Tier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiers[name] = tier
}

func (p *StaticProvider) Resolve(name string) (Tier, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tier, ok := p.tiers[name]
	return tier, ok
}

func (p *StaticProvider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.tiers))
	for name := range p.tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered tier.
func (p *StaticProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, tier := range p.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryProvider lazily creates one in-process memory tier per requested
// name. With preset names it runs in static mode and refuses names outside
// the set; with none it creates a tier for any name on first resolve.
type MemoryProvider struct {
	preset map[string]struct{}
	opts   []Option

	mu    sync.Mutex
	tiers map[string]*MemoryTier
}

// NewMemoryProvider creates a provider of in-process tiers. Options are
// applied to every tier it creates.
func NewMemoryProvider(names []string, opts ...Option) *MemoryProvider {
	var preset map[string]struct{}
	if len(names) > 0 {
		preset = make(map[string]struct{}, len(names))
		for _, name := range names {
			preset[name] = struct{}{}
		}
	}

	return &MemoryProvider{
		preset: preset,
		opts:   opts,
		tiers:  make(map[string]*MemoryTier),
	}
}

// Resolve returns the memory tier for the name, creating it on first use.
// Repeated resolves of one name share one tier.
func (p *MemoryProvider) Resolve(name string) (Tier, bool) {
	if p.preset != nil {
		if _, ok := p.preset[name]; !ok {
			return nil, false
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tier, ok := p.tiers[name]
	if !ok {
		tier = NewMemoryTier(p.opts...)
		p.tiers[name] = tier
	}
	return tier, true
}

// Names advertises the preset names in static mode, otherwise the names
// created so far.
func (p *MemoryProvider) Names() []string {
	var names []string
	if p.preset != nil {
		for name := range p.preset {
			names = append(names, name)
		}
	} else {
		p.mu.Lock()
		for name := range p.tiers {
			names = append(names, name)
		}
		p.mu.Unlock()
	}
	sort.Strings(names)
	return names
}

// Close closes every tier created so far.
func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, tier := range p.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// nsSeparator joins a cache name and a key on a shared backing tier. It is
// restricted to characters the JetStream KV tier accepts in keys.
const nsSeparator = "/"

// NamespaceProvider resolves each name in a configured set to one shared
// backing tier, viewed through a key-prefixing wrapper so the names stay
// disjoint namespaces on the same store.
type NamespaceProvider struct {
	tier  Tier
	names map[string]struct{}
}

// NewNamespaceProvider shares one backing tier across the given names. The
// provider owns the tier and closes it; the namespaced views it hands out
// do not.
func NewNamespaceProvider(tier Tier, names ...string) *NamespaceProvider {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return &NamespaceProvider{tier: tier, names: set}
}

func (p *NamespaceProvider) Resolve(name string) (Tier, bool) {
	if _, ok := p.names[name]; !ok {
		return nil, false
	}
	return &nsTier{base: p.tier, prefix: name + nsSeparator}, true
}

func (p *NamespaceProvider) Names() []string {
	names := make([]string, 0, len(p.names))
	for name := range p.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes the shared backing tier.
func (p *NamespaceProvider) Close() error {
	return p.tier.Close()
}

// nsTier is a keyspace view over a shared tier. Flush clears the whole
// backing tier, not just this namespace; shared tiers have no cheap way to
// enumerate one prefix.
type nsTier struct {
	base   Tier
	prefix string
}

func (t *nsTier) Set(ctx context.Context, key string, value []byte) error {
	return t.base.Set(ctx, t.prefix+key, value)
}

func (t *nsTier) Delete(ctx context.Context, key string) error {
	return t.base.Delete(ctx, t.prefix+key)
}

func (t *nsTier) Flush(ctx context.Context) error {
	return t.base.Flush(ctx)
}

// Close is a no-op: the backing tier belongs to the provider.
func (t *nsTier) Close() error {
	return nil
}

// Lookup delegates when the backing tier is lookup-capable and misses
// otherwise.
func (t *nsTier) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	lookup, ok := t.base.(Lookuper)
	if !ok {
		return nil, false, nil
	}
	return lookup.Lookup(ctx, t.prefix+key)
}

// GetOrLoad delegates when the backing tier is read-through capable. The
// loader still sees the logical key, not the prefixed one.
func (t *nsTier) GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	readThrough, ok := t.base.(ReadThrough)
	if !ok {
		return nil, false, nil
	}

	wrapped := load
	if load != nil {
		wrapped = func(ctx context.Context, _ string) ([]byte, error) {
			return load(ctx, key)
		}
	}
	return readThrough.GetOrLoad(ctx, t.prefix+key, wrapped)
}
