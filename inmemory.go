package strata

import (
	"context"
	"sync"
	"time"
)

// memoryItem represents a cache item with expiration.
type memoryItem struct {
	value      []byte
	expiration time.Time
}

// isExpired checks if the item has expired.
func (i *memoryItem) isExpired() bool {
	if i.expiration.IsZero() {
		return false
	}
	return time.Now().After(i.expiration)
}

// MemoryTier is a thread-safe in-process tier. It is the usual fastest
// member of a composite chain and the tier that promotion writes land in.
type MemoryTier struct {
	items      sync.Map // map[string]*memoryItem
	maxAge     time.Duration
	cleanupMu  sync.Mutex
	stopClean  chan struct{}
	cleanupInt time.Duration
}

const defaultCleanupInterval = 5 * time.Minute

// NewMemoryTier creates an in-process tier. WithMaxAge bounds the lifetime
// of stored entries; zero keeps them until evicted.
func NewMemoryTier(opts ...Option) *MemoryTier {
	o := NewOptions(Options{}, opts...)

	tier := &MemoryTier{
		maxAge:     o.MaxAge,
		stopClean:  make(chan struct{}),
		cleanupInt: defaultCleanupInterval,
	}

	go tier.startCleanup()

	return tier
}

// startCleanup periodically removes expired items.
func (t *MemoryTier) startCleanup() {
	ticker := time.NewTicker(t.cleanupInt)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stopClean:
			return
		}
	}
}

// cleanup removes expired items from the tier.
func (t *MemoryTier) cleanup() {
	t.items.Range(func(key, value interface{}) bool {
		item, ok := value.(*memoryItem)
		if ok && item.isExpired() {
			t.items.Delete(key)
		}
		return true
	})
}

// Lookup retrieves an item without consulting any loader.
func (t *MemoryTier) Lookup(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := t.items.Load(key)
	if !ok {
		return nil, false, nil
	}

	item, ok := value.(*memoryItem)
	if !ok || item.isExpired() {
		t.items.Delete(key)
		return nil, false, nil
	}

	return item.value, true, nil
}

// GetOrLoad returns the stored value, or invokes the loader on a miss and
// stores what it produced. Concurrent misses on one key may each invoke the
// loader; last write wins.
func (t *MemoryTier) GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	value, found, err := t.Lookup(ctx, key)
	if err != nil || found {
		return value, found, err
	}

	if load == nil {
		return nil, false, nil
	}

	loaded, err := load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if loaded == nil {
		return nil, false, nil
	}

	if setErr := t.Set(ctx, key, loaded); setErr != nil {
		return nil, false, setErr
	}
	return loaded, true, nil
}

// Set stores an item, bounded by the tier's max age if one is configured.
func (t *MemoryTier) Set(_ context.Context, key string, value []byte) error {
	item := &memoryItem{
		value: value,
	}

	if t.maxAge > 0 {
		item.expiration = time.Now().Add(t.maxAge)
	}

	t.items.Store(key, item)
	return nil
}

// Delete removes an item from the tier.
func (t *MemoryTier) Delete(_ context.Context, key string) error {
	t.items.Delete(key)
	return nil
}

// Flush clears all items from the tier.
func (t *MemoryTier) Flush(_ context.Context) error {
	t.items.Range(func(key, _ interface{}) bool {
		t.items.Delete(key)
		return true
	})
	return nil
}

// Close stops the cleanup goroutine and releases resources.
func (t *MemoryTier) Close() error {
	t.cleanupMu.Lock()
	defer t.cleanupMu.Unlock()

	select {
	case <-t.stopClean:
		// Already closed
		return nil
	default:
		close(t.stopClean)
	}

	return nil
}
