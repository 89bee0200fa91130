// Package queue hands committed revisions from the coordinator to the
// publisher.
//
// The queue is bounded and drops its oldest entry when full: only the newest
// revision has to reach the sink, so losing an older one is harmless.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 16
)

// Revision is the payload type flowing through the queue.
type Revision = model.Revision

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a revision, evicting the oldest one when full.
	Enqueue(ctx context.Context, r Revision) error

	// Dequeue returns a channel that receives revisions in commit order.
	// The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Revision

	// Len returns the current number of queued revisions.
	Len(ctx context.Context) int

	// Close stops the queue. Queued revisions can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	revisions chan Revision
	capacity  int

	mu     sync.Mutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.revisions = make(chan Revision, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds r to the queue. When the queue is full the oldest queued
// revision is discarded to make room.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Revision) error { //nolint:gocritic // hugeParam: Revision is passed by value for channel semantics
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue revision %d: %w", r.Version, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("enqueue revision %d: %w", r.Version, ErrClosed)
	}

	for {
		select {
		case q.revisions <- r:
			metrics.RecordQueueEnqueue()
			metrics.UpdateQueueSize(len(q.revisions))
			return nil
		default:
		}
		// Full: evict the oldest. A concurrent reader may have emptied a
		// seat already, in which case the next send succeeds.
		select {
		case <-q.revisions:
			metrics.RecordQueueDropped()
		default:
		}
	}
}

// Dequeue returns a channel that will receive revisions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Revision {
	out := make(chan Revision)
	go func() {
		defer close(out)
		for r := range q.revisions {
			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.revisions))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued revisions.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.revisions)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.revisions)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
