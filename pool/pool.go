package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("pool: closed")

// Task is a unit of work run by a pool worker.
type Task func()

// Stats is a point-in-time view of a pool.
type Stats struct {
	Depth     int
	Size      int
	Active    int64
	Queued    int
	Completed int64
}

// Pool runs tasks on a fixed number of worker goroutines fed from a bounded queue.
type Pool struct {
	depth  int
	size   int
	tasks  chan Task
	logger *slog.Logger

	active    atomic.Int64
	completed atomic.Int64

	metrics *instruments
	attrs   metric.MeasurementOption

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newPool(depth, size, queueSize int, logger *slog.Logger, m *instruments) *Pool {
	p := &Pool{
		depth:   depth,
		size:    size,
		tasks:   make(chan Task, queueSize),
		logger:  logger.With("depth", depth),
		metrics: m,
		attrs:   metric.WithAttributes(attribute.Int("depth", depth)),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("worker pool started", "size", size, "queue_size", queueSize)
	return p
}

// closedPool returns a pool without workers that rejects every task.
func closedPool(depth int, logger *slog.Logger) *Pool {
	return &Pool{
		depth:  depth,
		logger: logger.With("depth", depth),
		closed: true,
	}
}

// Depth returns the depth this pool serves.
func (p *Pool) Depth() int { return p.depth }

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Depth:     p.depth,
		Size:      p.size,
		Active:    p.active.Load(),
		Queued:    len(p.tasks),
		Completed: p.completed.Load(),
	}
}

// Submit queues task. It blocks while the queue is full until ctx is done.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("pool: nil task")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("worker pool stopped", "completed", p.completed.Load())
}

func (p *Pool) worker(num int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(num, task)
	}
}

func (p *Pool) run(num int, task Task) {
	ctx := context.Background()
	p.active.Add(1)
	p.metrics.active.Add(ctx, 1, p.attrs)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", "worker_num", num, "panic", r)
		}
		p.active.Add(-1)
		p.completed.Add(1)
		p.metrics.active.Add(ctx, -1, p.attrs)
		p.metrics.tasks.Add(ctx, 1, p.attrs)
	}()
	task()
}
