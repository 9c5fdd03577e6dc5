// Package redis provides a Redis-backed tier.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitabwire/strata"
)

// Tier is a Redis-backed cache tier.
type Tier struct {
	client *redis.Client
	maxAge time.Duration
}

const connectionTimeout = 5 * time.Second

// New connects to the Redis server named by WithDSN and verifies the
// connection before returning.
func New(opts ...strata.Option) (*Tier, error) {
	o := strata.NewOptions(strata.Options{MaxAge: time.Hour}, opts...)

	redisOpts, err := redis.ParseURL(o.DSN.String())
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, pingErr
	}

	return &Tier{
		client: client,
		maxAge: o.MaxAge,
	}, nil
}

// Lookup retrieves an item from the tier.
func (t *Tier) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := t.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// GetOrLoad returns the stored value, or invokes the loader on a miss and
// stores what it produced.
func (t *Tier) GetOrLoad(ctx context.Context, key string, load strata.Loader) ([]byte, bool, error) {
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

// Set stores an item bounded by the tier's max age.
func (t *Tier) Set(ctx context.Context, key string, value []byte) error {
	return t.client.Set(ctx, key, value, t.maxAge).Err()
}

// Delete removes an item from the tier.
func (t *Tier) Delete(ctx context.Context, key string) error {
	return t.client.Del(ctx, key).Err()
}

// Flush clears all items from the tier.
func (t *Tier) Flush(ctx context.Context) error {
	return t.client.FlushDB(ctx).Err()
}

// Close closes the Redis connection.
func (t *Tier) Close() error {
	return t.client.Close()
}
