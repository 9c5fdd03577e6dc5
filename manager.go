package strata

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/pitabwire/util"
)

// Manager resolves logical cache names into composites by consulting an
// ordered list of providers. Provider order is significant: it fixes the
// tier order of every composite the manager builds.
type Manager struct {
	mu           sync.Mutex
	providers    []Provider
	noOpFallback bool
	strict       bool
	initialized  bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithProviders appends delegate providers, in order.
func WithProviders(providers ...Provider) ManagerOption {
	return func(m *Manager) {
		m.providers = append(m.providers, providers...)
	}
}

// WithNoOpFallback requests that a catch-all no-op provider be appended at
// Init time, so every name resolves to a composite with at least one tier.
func WithNoOpFallback(fallback bool) ManagerOption {
	return func(m *Manager) {
		m.noOpFallback = fallback
	}
}

// WithStrict makes every composite the manager builds propagate tier
// errors instead of recovering them.
func WithStrict(strict bool) ManagerOption {
	return func(m *Manager) {
		m.strict = strict
	}
}

// NewManager creates a manager over the given providers.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddProviders appends delegate providers. Accumulates across calls before
// Init; once the manager is initialized the provider list is frozen and
// further additions are ignored.
func (m *Manager) AddProviders(ctx context.Context, providers ...Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		util.Log(ctx).Warn("cache manager already initialized, ignoring additional providers")
		return
	}
	m.providers = append(m.providers, providers...)
}

// SetNoOpFallback records whether a catch-all provider should be appended
// at Init time. Ignored after initialization.
func (m *Manager) SetNoOpFallback(fallback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return
	}
	m.noOpFallback = fallback
}

// Init finalizes configuration. If the no-op fallback was requested exactly
// one catch-all provider is appended after all configured providers. Init
// is idempotent and must run before the first GetCache call.
func (m *Manager) Init(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return
	}
	if m.noOpFallback {
		m.providers = append(m.providers, NewNoOpProvider())
	}
	m.initialized = true
}

// GetCache resolves a name by querying every provider in order and
// composing the tiers they contribute. Providers that do not recognise the
// name contribute nothing. The composite is built fresh per call over its
// own frozen tier list; it is never nil, and zero contributed tiers yields
// a composite that misses every read and discards every write.
func (m *Manager) GetCache(_ context.Context, name string) *Composite {
	m.mu.Lock()
	providers := m.providers
	strict := m.strict
	m.mu.Unlock()

	var tiers []Tier
	for _, provider := range providers {
		if tier, ok := provider.Resolve(name); ok && tier != nil {
			tiers = append(tiers, tier)
		}
	}

	return NewComposite(name, tiers, WithStrictErrors(strict))
}

// CacheNames returns the duplicate-free union of the names advertised by
// all providers. The slice is freshly allocated on each call; order is not
// significant.
func (m *Manager) CacheNames() []string {
	m.mu.Lock()
	providers := m.providers
	m.mu.Unlock()

	seen := make(map[string]struct{})
	var names []string
	for _, provider := range providers {
		for _, name := range provider.Names() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// Close closes every provider that owns resources. Individual tiers are
// owned by their providers, never by the manager or its composites.
func (m *Manager) Close() error {
	m.mu.Lock()
	providers := m.providers
	m.mu.Unlock()

	var errs []error
	for _, provider := range providers {
		if closer, ok := provider.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
