// Package jetstream provides a tier backed by the NATS JetStream KeyValue
// store.
package jetstream

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/pitabwire/strata"
)

// Tier is a JetStream-backed cache tier. Keys must satisfy the KV store's
// key grammar; cache-name prefixes applied by NamespaceProvider use "/",
// which it accepts.
type Tier struct {
	conn   *nats.Conn
	client nats.KeyValue
}

// New connects to the NATS server named by WithDSN and binds the KeyValue
// bucket named by WithName, creating it with WithMaxAge as entry TTL when
// it does not exist yet.
func New(opts ...strata.Option) (*Tier, error) {
	o := strata.NewOptions(strata.Options{Name: "default"}, opts...)

	natsConn, err := nats.Connect(o.DSN.String())
	if err != nil {
		return nil, err
	}

	js, err := natsConn.JetStream()
	if err != nil {
		natsConn.Close()
		return nil, err
	}

	kvCfg := &nats.KeyValueConfig{
		Bucket: o.Name,
		TTL:    o.MaxAge, // expiry for entries
	}

	client, err := js.CreateKeyValue(kvCfg)
	if err != nil {
		var apiErr *nats.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == nats.JSErrCodeStreamNameInUse {
			// The bucket already exists, just get a handle to it.
			client, err = js.KeyValue(o.Name)
			if err != nil {
				natsConn.Close()
				return nil, err
			}
		} else {
			natsConn.Close()
			return nil, err
		}
	}

	if _, err = client.Status(); err != nil {
		natsConn.Close()
		return nil, err
	}

	return &Tier{
		conn:   natsConn,
		client: client,
	}, nil
}

// Lookup retrieves an item from the tier.
func (t *Tier) Lookup(_ context.Context, key string) ([]byte, bool, error) {
	resp, err := t.client.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return resp.Value(), true, nil
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

// Set stores an item; entry TTL is the bucket's configured max age.
func (t *Tier) Set(_ context.Context, key string, value []byte) error {
	_, err := t.client.Put(key, value)
	return err
}

// Delete removes an item from the tier.
func (t *Tier) Delete(_ context.Context, key string) error {
	err := t.client.Delete(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Flush clears all items from the bucket.
func (t *Tier) Flush(_ context.Context) error {
	keys, err := t.client.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}
		return err
	}

	for _, key := range keys {
		if err = t.client.Delete(key); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the NATS connection.
func (t *Tier) Close() error {
	t.conn.Close()
	return nil
}
