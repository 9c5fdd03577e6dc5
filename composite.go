package strata

import (
	"context"

	"github.com/pitabwire/util"
)

// Composite presents one logical cache backed by an ordered list of tiers,
// index 0 being the fastest. Reads scan tiers in order and promote a hit
// into every earlier tier that missed; writes, evictions and clears fan out
// to all tiers in order.
//
// By default a failing tier is recovered locally: it counts as a miss for
// reads and a no-op for writes in that call, and the remaining tiers proceed
// unaffected. WithStrictErrors switches to propagating the first tier error.
//
// A Composite holds no locks and starts no goroutines; concurrent callers
// are serialized only by whatever guarantees each tier provides itself.
type Composite struct {
	name   string
	tiers  []Tier
	strict bool
	stats  *telemetry
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithStrictErrors makes the composite propagate the first tier error
// instead of recovering it. Promotion write-backs are always recovered;
// they are an optimisation, not part of the caller's operation.
func WithStrictErrors(strict bool) CompositeOption {
	return func(c *Composite) {
		c.strict = strict
	}
}

// NewComposite creates a composite cache over the given tiers. The slice is
// copied and nil entries are dropped, so the tier membership is frozen at
// construction. An empty tier list is valid: every read misses and every
// write is silently discarded.
func NewComposite(name string, tiers []Tier, opts ...CompositeOption) *Composite {
	kept := make([]Tier, 0, len(tiers))
	for _, tier := range tiers {
		if tier != nil {
			kept = append(kept, tier)
		}
	}

	c := &Composite{
		name:  name,
		tiers: kept,
		stats: newTelemetry(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the logical cache name shared by all tiers of this composite.
func (c *Composite) Name() string {
	return c.name
}

// Tiers reports how many tiers back this composite.
func (c *Composite) Tiers() int {
	return len(c.tiers)
}

// Native always fails with ErrNoNativeCache: a composite of heterogeneous
// tiers has no single underlying handle.
func (c *Composite) Native() (any, error) {
	return nil, ErrNoNativeCache
}

// Lookup scans tiers in order for a raw value, bypassing any loader. The
// first present value is written back into every earlier lookup-capable
// tier that missed, in their original visit order, and returned. Tiers
// without the Lookuper capability are skipped.
func (c *Composite) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	var missed []int

	for i, tier := range c.tiers {
		lookup, ok := tier.(Lookuper)
		if !ok {
			continue
		}

		value, found, err := lookup.Lookup(ctx, key)
		if err != nil {
			if c.strict {
				return nil, false, err
			}
			c.recoverFault(ctx, "lookup", i, err)
			missed = append(missed, i)
			continue
		}
		if !found {
			missed = append(missed, i)
			continue
		}

		c.promote(ctx, key, value, missed)
		return value, true, nil
	}

	return nil, false, nil
}

// promote writes a discovered value into the tiers that missed before the
// hit. Promotion failures are recovered even in strict mode.
func (c *Composite) promote(ctx context.Context, key string, value []byte, missed []int) {
	if len(missed) == 0 {
		return
	}

	for _, i := range missed {
		if err := c.tiers[i].Set(ctx, key, value); err != nil {
			c.recoverFault(ctx, "promote", i, err)
		}
	}
	c.stats.recordPromotion(ctx, c.name, int64(len(missed)))
}

// GetOrLoad delegates to each read-through capable tier in order and
// returns the first present value. The composite never invokes the loader
// itself; loading and self-population belong entirely to whichever tier
// implements ReadThrough. With zero such tiers the result is a miss even
// though a loader was supplied - that is the contract, configure a
// catch-all tier if a load-always guarantee is needed.
func (c *Composite) GetOrLoad(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	for i, tier := range c.tiers {
		readThrough, ok := tier.(ReadThrough)
		if !ok {
			continue
		}

		value, found, err := readThrough.GetOrLoad(ctx, key, load)
		if err != nil {
			if c.strict {
				return nil, false, err
			}
			c.recoverFault(ctx, "get", i, err)
			continue
		}
		if found {
			return value, true, nil
		}
	}

	return nil, false, nil
}

// Set fans the write out to every tier in order. A nil value is the skip
// sentinel: the composite never stores an absent marker, so the call is a
// no-op.
func (c *Composite) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return nil
	}

	for i, tier := range c.tiers {
		if err := tier.Set(ctx, key, value); err != nil {
			if c.strict {
				return err
			}
			c.recoverFault(ctx, "set", i, err)
		}
	}
	return nil
}

// Delete fans the eviction out to every tier in order.
func (c *Composite) Delete(ctx context.Context, key string) error {
	for i, tier := range c.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			if c.strict {
				return err
			}
			c.recoverFault(ctx, "delete", i, err)
		}
	}
	return nil
}

// Flush fans the clear-all out to every tier in order.
func (c *Composite) Flush(ctx context.Context) error {
	for i, tier := range c.tiers {
		if err := tier.Flush(ctx); err != nil {
			if c.strict {
				return err
			}
			c.recoverFault(ctx, "flush", i, err)
		}
	}
	return nil
}

func (c *Composite) recoverFault(ctx context.Context, op string, tierIndex int, err error) {
	util.Log(ctx).
		WithError(err).
		WithField("cache", c.name).
		WithField("operation", op).
		WithField("tier", tierIndex).
		Warn("cache tier operation failed, continuing without it")
	c.stats.recordFault(ctx, c.name, op, tierIndex)
}
