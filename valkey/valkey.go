// Package valkey provides a Valkey-backed tier using the official client.
package valkey

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/pitabwire/strata"
)

// Tier is a Valkey-backed cache tier.
type Tier struct {
	client valkey.Client
	maxAge time.Duration
}

const connectionTimeout = 5 * time.Second

// New connects to the Valkey server named by WithDSN and verifies the
// connection before returning.
func New(opts ...strata.Option) (*Tier, error) {
	o := strata.NewOptions(strata.Options{MaxAge: time.Hour}, opts...)

	valkeyOpts, err := valkey.ParseURL(o.DSN.String())
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if pingErr := client.Do(ctx, client.B().Ping().Build()).Error(); pingErr != nil {
		client.Close()
		return nil, pingErr
	}

	return &Tier{
		client: client,
		maxAge: o.MaxAge,
	}, nil
}

// Lookup retrieves an item from the tier.
func (t *Tier) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := t.client.B().Get().Key(key).Build()
	resp := t.client.Do(ctx, cmd)

	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	val, err := resp.AsBytes()
	if err != nil {
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
	var cmd valkey.Completed

	if t.maxAge > 0 {
		// Valkey Ex() expects seconds, not duration
		seconds := int64(t.maxAge.Seconds())
		if seconds == 0 {
			seconds = 1 // Minimum 1 second for sub-second durations
		}
		cmd = t.client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	} else {
		cmd = t.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()
	}

	return t.client.Do(ctx, cmd).Error()
}

// Delete removes an item from the tier.
func (t *Tier) Delete(ctx context.Context, key string) error {
	cmd := t.client.B().Del().Key(key).Build()
	return t.client.Do(ctx, cmd).Error()
}

// Flush clears all items from the tier.
func (t *Tier) Flush(ctx context.Context) error {
	cmd := t.client.B().Flushdb().Build()
	return t.client.Do(ctx, cmd).Error()
}

// Close closes the Valkey connection.
func (t *Tier) Close() error {
	t.client.Close()
	return nil
}
