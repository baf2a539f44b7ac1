package repository

import (
	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/cache"
)

// DefaultMaxConcurrent bounds parallel package opens when no limit is set.
const DefaultMaxConcurrent = 4

// DefaultTripThreshold is the number of consecutive failures after which a
// source's circuit breaker opens.
const DefaultTripThreshold = 5

// Option configures repositories.
type Option func(*options)

type options struct {
	archives      *archive.Manager
	maxConcurrent int
	cacheOpts     []cache.Option
	tripThreshold int64
}

func newOptions(opts []Option) options {
	o := options{maxConcurrent: DefaultMaxConcurrent, tripThreshold: DefaultTripThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	if o.archives == nil {
		o.archives = archive.NewManager()
	}
	if o.maxConcurrent < 1 {
		o.maxConcurrent = 1
	}
	return o
}

// WithArchiveManager sets the archive reader, which decides how lib folders
// map to platform profiles.
func WithArchiveManager(am *archive.Manager) Option {
	return func(o *options) { o.archives = am }
}

// WithMaxConcurrent bounds parallel package opens and source queries.
func WithMaxConcurrent(n int) Option {
	return func(o *options) { o.maxConcurrent = n }
}

// WithCacheOptions passes options to the derived data cache of a
// ServerRepository.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// WithTripThreshold sets the consecutive failure count that opens a source's
// circuit breaker in an AggregateRepository.
func WithTripThreshold(n int64) Option {
	return func(o *options) { o.tripThreshold = n }
}
