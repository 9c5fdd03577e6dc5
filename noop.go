package strata

import "context"

// NoOpTier accepts and discards every write, reports success for every
// eviction and clear, and holds nothing. It deliberately does not implement
// Lookuper, so composites skip it during the promotion scan. Its GetOrLoad
// invokes the loader without caching the result, which is what lets a
// catch-all configured manager still serve loader-backed reads.
type NoOpTier struct{}

// NewNoOpTier creates a tier that caches nothing.
func NewNoOpTier() *NoOpTier {
	return &NoOpTier{}
}

func (n *NoOpTier) Set(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (n *NoOpTier) Delete(_ context.Context, _ string) error {
	return nil
}

func (n *NoOpTier) Flush(_ context.Context) error {
	return nil
}

func (n *NoOpTier) Close() error {
	return nil
}

// GetOrLoad always misses the store and delegates straight to the loader.
func (n *NoOpTier) GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	if load == nil {
		return nil, false, nil
	}
	value, err := load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

// NoOpProvider resolves every name to a no-op tier. Appended by the
// manager as the last delegate when the no-op fallback is enabled, so that
// unconfigured names degrade to a cache that trivially succeeds instead of
// resolving to nothing.
type NoOpProvider struct {
	tier *NoOpTier
}

// NewNoOpProvider creates a catch-all provider.
func NewNoOpProvider() *NoOpProvider {
	return &NoOpProvider{tier: NewNoOpTier()}
}

// Resolve recognises every name.
func (p *NoOpProvider) Resolve(_ string) (Tier, bool) {
	return p.tier, true
}

// Names advertises nothing: the provider recognises names, it does not
// declare them.
func (p *NoOpProvider) Names() []string {
	return nil
}
