// Package config builds a cache manager and its provider chain from
// environment configuration.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/pitabwire/strata"
	"github.com/pitabwire/strata/jetstream"
	"github.com/pitabwire/strata/redis"
	"github.com/pitabwire/strata/valkey"
)

// Config is the environment surface of the library. DSNs are a comma
// separated list; each entry contributes one shared backing tier routed by
// its scheme, behind the in-process tier when that is enabled.
type Config struct {
	Names        []string      `env:"CACHE_NAMES" envSeparator:","`
	DSN          strata.DSN    `env:"CACHE_DSN"`
	MaxAge       time.Duration `env:"CACHE_MAX_AGE"       envDefault:"1h"`
	MemoryTier   bool          `env:"CACHE_MEMORY_TIER"   envDefault:"true"`
	NoOpFallback bool          `env:"CACHE_NOOP_FALLBACK" envDefault:"false"`
	Strict       bool          `env:"CACHE_STRICT_ERRORS" envDefault:"false"`

	// Bucket names the JetStream KV bucket when a nats DSN is configured.
	Bucket string `env:"CACHE_BUCKET" envDefault:"strata"`
}

// FromEnv convenience method to process configs.
func FromEnv() (Config, error) {
	return env.ParseAs[Config]()
}

// NewManager builds an initialized manager from the configuration: an
// in-process provider first, then one namespace provider per DSN in the
// order configured, then the no-op fallback if requested.
func NewManager(ctx context.Context, cfg Config) (*strata.Manager, error) {
	var providers []strata.Provider

	if cfg.MemoryTier {
		providers = append(providers, strata.NewMemoryProvider(cfg.Names, strata.WithMaxAge(cfg.MaxAge)))
	}

	for _, dsn := range cfg.DSN.ToArray() {
		tier, err := newTier(dsn, cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, strata.NewNamespaceProvider(tier, cfg.Names...))
	}

	m := strata.NewManager(
		strata.WithProviders(providers...),
		strata.WithNoOpFallback(cfg.NoOpFallback),
		strata.WithStrict(cfg.Strict),
	)
	m.Init(ctx)
	return m, nil
}

func newTier(dsn strata.DSN, cfg Config) (strata.Tier, error) {
	opts := []strata.Option{
		strata.WithDSN(dsn),
		strata.WithMaxAge(cfg.MaxAge),
	}

	switch {
	case dsn.IsRedis():
		return redis.New(opts...)
	case dsn.IsValkey():
		return valkey.New(opts...)
	case dsn.IsNats():
		return jetstream.New(append(opts, strata.WithName(cfg.Bucket))...)
	default:
		return nil, fmt.Errorf("config: unsupported cache dsn scheme in %q", dsn)
	}
}
