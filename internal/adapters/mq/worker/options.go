package worker

import (
	"time"

	"github.com/okian/vacancy/pkg/logger"
)

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithName sets the publisher name for identification and logging.
func WithName(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the publisher.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBackoff sets the first retry delay and the largest one.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(p *Publisher) {
		if base > 0 {
			p.backoffBase = base
		}
		if maxDelay >= p.backoffBase {
			p.backoffMax = maxDelay
		}
	}
}

// WithMaxAttempts bounds publication attempts per revision. Zero or less
// retries until a newer revision supersedes it or the publisher stops.
func WithMaxAttempts(n int) Option {
	return func(p *Publisher) {
		p.maxAttempts = n
	}
}

// WithSeed makes retry jitter reproducible.
func WithSeed(seed int64) Option {
	return func(p *Publisher) {
		p.rng = newRetryRNG(seed)
	}
}

// WithOnPublished registers a callback run after each successful publish.
func WithOnPublished(fn func(Revision)) Option {
	return func(p *Publisher) {
		p.onPublished = fn
	}
}
