// Package worker scores candidate batches on a fixed set of goroutines.
package worker

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/mapperator/pkg/logger"
	"github.com/okian/mapperator/pkg/metrics"
)

const (
	defaultQueueCapacity = 1024
	poolShutdownTimeout  = 30 * time.Second
)

// InMemoryWorker runs tasks from a queue until the queue closes.
type InMemoryWorker struct {
	queue  Queue
	name   string
	done   chan struct{}
	logger logger.Logger
}

func newWorker(q Queue, name string, l logger.Logger) *InMemoryWorker {
	return &InMemoryWorker{
		queue:  q,
		name:   name,
		done:   make(chan struct{}),
		logger: l.Named(name),
	}
}

// Run processes tasks until the queue is closed. Tasks left in a closed
// queue are still run so no batch waits forever.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	for t := range w.queue.Dequeue() {
		w.process(ctx, t)
	}
}

func (w *InMemoryWorker) process(ctx context.Context, t Task) {
	defer t.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			t.out[t.index] = math.Inf(-1)
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "scoring task panicked", logger.Any("panic", r))
		}
	}()
	t.out[t.index] = t.fn()
}

// Pool owns a queue and the workers reading it.
type Pool struct {
	name          string
	size          int
	queueCapacity int
	queue         Queue
	workers       []*InMemoryWorker
	logger        logger.Logger

	mu      sync.RWMutex
	ctx     context.Context
	started bool
	stopped bool
}

// NewPool creates a pool of workerCount workers. A count below one uses one
// worker per CPU.
func NewPool(workerCount int, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		name:          "worker-pool",
		size:          workerCount,
		queueCapacity: defaultQueueCapacity,
		logger:        logger.Get(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	p.queue = NewInMemoryQueue(p.queueCapacity)

	p.workers = make([]*InMemoryWorker, workerCount)
	for i := range p.workers {
		p.workers[i] = newWorker(p.queue, "worker-"+strconv.Itoa(i), p.logger)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. ctx bounds every later ScoreBatch call.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx = ctx
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(p.size)
	p.logger.Debug(ctx, "worker pool started", logger.Int("workers", p.size))
}

// ScoreBatch runs every function on the pool and returns the results in
// order. Panicking functions score negative infinity.
func (p *Pool) ScoreBatch(fns []func() float64) ([]float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.started {
		return nil, ErrNotStarted
	}
	if p.stopped {
		return nil, ErrStopped
	}

	out := make([]float64, len(fns))
	if len(fns) == 0 {
		return out, nil
	}
	metrics.RecordWorkerBatch(len(fns))

	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		if !p.queue.Enqueue(p.ctx, Task{index: i, fn: fn, out: out, wg: &wg}) {
			wg.Done()
			wg.Wait()
			metrics.RecordErrorByComponent("worker", "enqueue")
			return nil, fmt.Errorf("enqueue task %d of %d: %w", i, len(fns), ErrStopped)
		}
	}
	wg.Wait()
	return out, nil
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
