package worker

import (
	"context"
	"sync"
)

// Task is one scoring call. The worker stores the result in out[index] and
// marks wg done.
type Task struct {
	index int
	fn    func() float64
	out   []float64
	wg    *sync.WaitGroup
}

// Queue hands tasks to workers.
type Queue interface {
	// Enqueue blocks until the task is accepted, ctx is done or the queue
	// is closed. It reports whether the task was accepted.
	Enqueue(ctx context.Context, t Task) bool

	// Dequeue returns the channel workers read from. It is closed by Close.
	Dequeue() <-chan Task

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks  chan Task
	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue buffering up to capacity tasks.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &InMemoryQueue{tasks: make(chan Task, capacity)}
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.tasks <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *InMemoryQueue) Dequeue() <-chan Task { return q.tasks }

func (q *InMemoryQueue) Len() int { return len(q.tasks) }

// Close stops accepting tasks. Tasks already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
