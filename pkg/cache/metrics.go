package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits         prometheus.Counter
	computations prometheus.Counter
	waits        prometheus.Counter
	takeovers    prometheus.Counter
	failures     prometheus.Counter
}

// newMetrics creates the cache counters. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nupack",
			Subsystem: "derived_cache",
			Name:      name,
			Help:      help,
		})
	}
	return &metrics{
		hits:         counter("hits_total", "Lookups answered from a ready entry."),
		computations: counter("computations_total", "Derived data computations that completed."),
		waits:        counter("waits_total", "Times a caller waited on another caller's computation."),
		takeovers:    counter("takeovers_total", "Pending computations taken over after the wait bound."),
		failures:     counter("failures_total", "Derived data computations that failed."),
	}
}
