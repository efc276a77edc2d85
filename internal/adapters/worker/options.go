package worker

import (
	"github.com/okian/mapperator/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithName sets the pool name used in logs.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithQueueCapacity sets how many tasks may wait for a worker.
func WithQueueCapacity(capacity int) Option {
	return func(p *Pool) {
		if capacity > 0 {
			p.queueCapacity = capacity
		}
	}
}
