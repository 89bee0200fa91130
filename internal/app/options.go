package service

import (
	"time"

	"github.com/okian/vacancy/internal/adapters/repository"
	"github.com/okian/vacancy/internal/adapters/sink"
	"github.com/okian/vacancy/internal/domain/preference"
	"github.com/okian/vacancy/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRepository sets where preference lists are mirrored before commit.
func WithRepository(r repository.Store) Option {
	return func(s *Service) {
		if r != nil {
			s.repo = r
		}
	}
}

// WithSink sets where committed revisions are published.
func WithSink(k sink.Sink) Option {
	return func(s *Service) {
		if k != nil {
			s.sink = k
		}
	}
}

// WithQuotaPolicy selects what happens to lists longer than the rank quota.
func WithQuotaPolicy(p preference.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithPublishQueueSize sets the capacity of the publication queue.
func WithPublishQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPublishRetry sets the publication backoff and attempt limit. Zero
// attempts means retry until superseded or stopped.
func WithPublishRetry(base, maxDelay time.Duration, attempts int) Option {
	return func(s *Service) {
		if base > 0 && maxDelay >= base {
			s.backoffBase = base
			s.backoffMax = maxDelay
		}
		if attempts >= 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithVerify checks every computed assignment against the allocation rules.
func WithVerify(enabled bool) Option {
	return func(s *Service) {
		s.verify = enabled
	}
}

// WithStopTimeout bounds how long Stop waits for the last revision to publish.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}
