// Package metrics provides Prometheus metrics for the mapperator engine.
package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager before its metrics are registered.
type Option func(*Manager)

// WithRegistry registers the metrics on reg instead of the default
// registerer.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// WithNamespace replaces the "mapperator" metric name prefix.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithDurationBuckets sets the millisecond buckets shared by trie builds,
// generation runs and HTTP requests. Unsorted layouts are ignored.
func WithDurationBuckets(ms ...float64) Option {
	return func(m *Manager) {
		if len(ms) > 0 && slices.IsSorted(ms) {
			m.durationBuckets = slices.Clone(ms)
		}
	}
}

// WithBatchBuckets sets the buckets of the scoring batch size histogram.
// Unsorted layouts are ignored.
func WithBatchBuckets(sizes ...float64) Option {
	return func(m *Manager) {
		if len(sizes) > 0 && slices.IsSorted(sizes) {
			m.batchBuckets = slices.Clone(sizes)
		}
	}
}

// WithConstLabel attaches name=value to every metric, e.g. the corpus a
// process serves.
func WithConstLabel(name, value string) Option {
	return func(m *Manager) {
		if name != "" {
			m.constLabels[name] = value
		}
	}
}
