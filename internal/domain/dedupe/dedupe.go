// Package dedupe tracks idempotency keys of mutating requests. A retried
// request carrying a key that was already used is answered with the first
// outcome instead of being applied again, so a late retry cannot overwrite
// a newer edit.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10_000

// Deduper records seen keys and the generation each one produced.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Complete stores the generation the request recorded under id produced.
	Complete(ctx context.Context, id string, gen uint64)

	// Outcome returns the generation stored for id. It reports false while
	// the first request is still running or when id is unknown.
	Outcome(ctx context.Context, id string) (uint64, bool)

	// Unrecord forgets id so a request that failed can be retried with it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type entry struct {
	id   string
	gen  uint64
	done bool
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest once
// maxSize is reached. A maxSize of zero or less never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at the front
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(&entry{id: id})
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Complete(_ context.Context, id string, gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		e := el.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
		e.gen, e.done = gen, true
	}
}

func (d *inMemoryDeduper) Outcome(_ context.Context, id string) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[id]
	if !ok {
		return 0, false
	}
	e := el.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
	return e.gen, e.done
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// evictOldest drops the earliest recorded key. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(*entry).id) //nolint:forcetypeassert // only *entry is stored
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
