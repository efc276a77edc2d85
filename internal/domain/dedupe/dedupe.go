// Package dedupe tracks keys already seen during a single search so each
// corpus position is reported at most once.
package dedupe

import (
	"sync"
	"sync/atomic"
)

// Deduper records seen keys.
type Deduper[K comparable] interface {
	// SeenAndRecord reports whether key was seen before and records it if not.
	SeenAndRecord(key K) bool

	// Unrecord forgets key so it may be reported again.
	Unrecord(key K)

	Size() int64
}

type node[K comparable] struct {
	key        K
	prev, next *node[K]
}

// inMemoryDeduper keeps keys in a map. When bounded, keys are also threaded
// on a list ordered by insertion and the oldest key is evicted first.
type inMemoryDeduper[K comparable] struct {
	mu      sync.Mutex
	seen    map[K]*node[K]
	head    *node[K] // newest
	tail    *node[K] // oldest
	maxSize int      // 0 or negative means unbounded
	size    atomic.Int64
}

// New creates an in-memory deduper. It is unbounded unless WithMaxSize is
// given a positive limit.
func New[K comparable](opts ...Option) Deduper[K] {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return &inMemoryDeduper[K]{
		seen:    make(map[K]*node[K]),
		maxSize: c.maxSize,
	}
}

func (d *inMemoryDeduper[K]) SeenAndRecord(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[key] = nil
		d.size.Add(1)
		return false
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	n := &node[K]{key: key, next: d.head}
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[key] = n
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper[K]) Unrecord(key K) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if n != nil {
		d.unlink(n)
	}
	d.size.Add(-1)
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper[K]) evictOldest() {
	if d.tail == nil {
		return
	}
	n := d.tail
	delete(d.seen, n.key)
	d.unlink(n)
	d.size.Add(-1)
}

func (d *inMemoryDeduper[K]) unlink(n *node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (d *inMemoryDeduper[K]) Size() int64 {
	return d.size.Load()
}
