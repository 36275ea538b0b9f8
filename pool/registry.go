package pool

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	// DefaultSize is the number of workers per depth when none is configured.
	DefaultSize = 4

	// DefaultQueueSize bounds the tasks waiting for a worker at one depth.
	DefaultQueueSize = 1024
)

type instruments struct {
	active metric.Int64UpDownCounter
	tasks  metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	active, err := meter.Int64UpDownCounter(
		"planexec.pool.active",
		metric.WithDescription("Tasks currently running per depth"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create active counter: %w", err)
	}
	tasks, err := meter.Int64Counter(
		"planexec.pool.tasks",
		metric.WithDescription("Tasks finished per depth"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create tasks counter: %w", err)
	}
	return &instruments{active: active, tasks: tasks}, nil
}

// Option configures a Registry.
type Option func(*Registry)

// WithSize sets the default worker count for every depth.
func WithSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.size = n
		}
	}
}

// WithQueueSize sets the queue capacity of every pool.
func WithQueueSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithDepthSize overrides the worker count for one depth.
func WithDepthSize(depth, n int) Option {
	return func(r *Registry) {
		if depth >= 0 && n > 0 {
			r.depthSizes[depth] = n
		}
	}
}

// WithLogger sets the logger used by the registry and its pools.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMeter records pool metrics on meter.
func WithMeter(meter metric.Meter) Option {
	return func(r *Registry) {
		if meter != nil {
			r.meter = meter
		}
	}
}

// Registry maps a recursion depth to its dedicated pool.
// Pools are created on first use and live until Close. After Close every
// pool, including ones requested later, rejects tasks with ErrPoolClosed.
type Registry struct {
	size       int
	queueSize  int
	depthSizes map[int]int
	logger     *slog.Logger
	meter      metric.Meter
	metrics    *instruments

	mu     sync.Mutex
	pools  map[int]*Pool
	closed bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		size:       DefaultSize,
		queueSize:  DefaultQueueSize,
		depthSizes: make(map[int]int),
		logger:     slog.Default(),
		meter:      noop.NewMeterProvider().Meter("planexec/pool"),
		pools:      make(map[int]*Pool),
	}
	for _, opt := range opts {
		opt(r)
	}

	m, err := newInstruments(r.meter)
	if err != nil {
		r.logger.Warn("failed to create pool metrics, using noop", "error", err)
		m, _ = newInstruments(noop.NewMeterProvider().Meter("planexec/pool"))
	}
	r.metrics = m
	return r
}

// ForDepth returns the pool dedicated to depth, creating it on first use.
// Negative depths are treated as 0.
func (r *Registry) ForDepth(depth int) *Pool {
	if depth < 0 {
		depth = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[depth]; ok {
		return p
	}
	if r.closed {
		return closedPool(depth, r.logger)
	}

	size := r.size
	if n, ok := r.depthSizes[depth]; ok {
		size = n
	}
	p := newPool(depth, size, r.queueSize, r.logger, r.metrics)
	r.pools[depth] = p
	r.logger.Info("created worker pool for depth", "depth", depth, "size", size)
	return p
}

// Stats returns stats for every pool created so far, ordered by depth.
func (r *Registry) Stats() []Stats {
	r.mu.Lock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.Unlock()

	sort.Slice(pools, func(i, j int) bool { return pools[i].depth < pools[j].depth })
	out := make([]Stats, 0, len(pools))
	for _, p := range pools {
		out = append(out, p.Stats())
	}
	return out
}

// Close shuts down every pool. It is meant for process shutdown only.
// Pools are closed from the shallowest depth up, so a draining parent run can
// still hand work to an existing deeper pool. Depths first requested after
// Close get a pool that is already closed.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	pools := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.Unlock()

	sort.Slice(pools, func(i, j int) bool { return pools[i].depth < pools[j].depth })
	for _, p := range pools {
		p.Close()
	}
}
