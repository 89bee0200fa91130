// Package worker publishes committed revisions to a sink.
//
// A single Publisher drains the queue. It always works on the newest revision
// it has seen: a revision still being retried is abandoned as soon as a newer
// one arrives. Publishing never feeds back into allocation.
package worker

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/logger"
	"github.com/okian/vacancy/pkg/metrics"
)

// Default publisher configuration constants.
const (
	defaultBackoffBase = 100 * time.Millisecond
	defaultBackoffMax  = 10 * time.Second
	defaultMaxAttempts = 0
)

// Revision is what the publisher reads off the queue.
type Revision = model.Revision

// Sink receives published revisions.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r Revision) error
}

// Queue defines how the publisher receives revisions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Revision
}

// Publisher moves revisions from a Queue to a Sink with retries.
type Publisher struct {
	queue Queue
	sink  Sink
	name  string

	backoffBase time.Duration
	backoffMax  time.Duration
	maxAttempts int
	rng         *rand.Rand
	onPublished func(Revision)

	published atomic.Int64
	failures  atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewPublisher creates a publisher with configuration options.
func NewPublisher(queue Queue, sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		queue:       queue,
		sink:        sink,
		name:        "publisher",
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
		maxAttempts: defaultMaxAttempts,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}

	return p
}

// Published returns the version of the last revision the sink accepted.
func (p *Publisher) Published() int64 { return p.published.Load() }

// Failures returns the number of failed publish attempts.
func (p *Publisher) Failures() int64 { return p.failures.Load() }

// Run publishes until ctx is canceled, Shutdown is called or the queue
// channel closes.
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)

	ch := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			if !p.publish(ctx, p.newest(r, ch), ch) {
				return
			}
		}
	}
}

// Shutdown stops the publisher and waits for it to exit.
func (p *Publisher) Shutdown(ctx context.Context) error {
	select {
	case <-p.shutdown:
	default:
		close(p.shutdown)
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// newest drains whatever is already queued and keeps the highest version.
func (p *Publisher) newest(r Revision, ch <-chan Revision) Revision { //nolint:gocritic // hugeParam
	for {
		select {
		case next, ok := <-ch:
			if !ok {
				return r
			}
			r = p.supersede(r, next)
		default:
			return r
		}
	}
}

func (p *Publisher) supersede(cur, next Revision) Revision { //nolint:gocritic // hugeParam
	if next.Version > cur.Version {
		metrics.RecordPublishSuperseded()
		return next
	}
	return cur
}

// publish delivers r, retrying with jittered backoff. A newer revision that
// arrives during a backoff replaces r. It returns false when the publisher
// must stop.
func (p *Publisher) publish(ctx context.Context, r Revision, ch <-chan Revision) bool { //nolint:gocritic // hugeParam
	var delay time.Duration
	attempt := 0
	for {
		if r.Version <= p.published.Load() {
			return true
		}
		attempt++

		start := time.Now()
		err := p.sink.Publish(ctx, r)
		latency := float64(time.Since(start).Microseconds()) / 1000
		if err == nil {
			metrics.RecordPublishAttempt(p.sink.Name(), "success", latency)
			metrics.UpdatePublishedVersion(r.Version)
			p.published.Store(r.Version)
			p.logger.Debug(ctx, "revision published",
				logger.Int64("version", r.Version),
				logger.String("digest", r.Digest),
				logger.Int("attempt", attempt),
			)
			if p.onPublished != nil {
				p.onPublished(r)
			}
			return true
		}

		p.failures.Add(1)
		metrics.RecordPublishAttempt(p.sink.Name(), "failure", latency)
		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			p.logger.Error(ctx, "giving up on revision",
				logger.Int64("version", r.Version),
				logger.Int("attempts", attempt),
				logger.Error(err),
			)
			return true
		}

		delay = jitterBackoff(delay, p.backoffBase, defaultBackoffMultiplier, p.backoffMax, p.rng)
		p.logger.Warn(ctx, "publish failed, retrying",
			logger.Int64("version", r.Version),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", delay),
			logger.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-p.shutdown:
			timer.Stop()
			return false
		case next, ok := <-ch:
			timer.Stop()
			if !ok {
				return false
			}
			if newer := p.supersede(r, next); newer.Version != r.Version {
				r = p.newest(newer, ch)
				attempt, delay = 0, 0
			}
		case <-timer.C:
		}
	}
}
