package strata

import "time"

// Option configures tier construction.
type Option func(*Options)

// Options holds tier connection configuration.
type Options struct {
	DSN    DSN
	Name   string
	MaxAge time.Duration
}

// NewOptions applies opts over the given defaults.
func NewOptions(defaults Options, opts ...Option) *Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

func WithDSN(dsn DSN) Option {
	return func(o *Options) {
		o.DSN = dsn
	}
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithMaxAge returns an Option to configure the max age of entries the
// tier stores, including values written back by promotion.
func WithMaxAge(maxAge time.Duration) Option {
	return func(o *Options) {
		o.MaxAge = maxAge
	}
}
