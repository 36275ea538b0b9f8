package planexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/zero-day-ai/planexec/component"
	"github.com/zero-day-ai/planexec/executor"
	"github.com/zero-day-ai/planexec/filesync"
	"github.com/zero-day-ai/planexec/health"
	"github.com/zero-day-ai/planexec/interrupt"
	"github.com/zero-day-ai/planexec/plan"
	"github.com/zero-day-ai/planexec/pool"
)

// Engine wires the worker pools, interruption gate, executors and
// coordinator described by a component.Config.
type Engine struct {
	cfg         *component.Config
	logger      *slog.Logger
	store       interrupt.Store
	ownsStore   bool
	gate        *interrupt.Gate
	pools       *pool.Registry
	factory     *executor.Factory
	coordinator *executor.Coordinator

	mu     sync.RWMutex
	closed bool
}

// New builds an engine. A nil cfg uses defaults throughout.
func New(cfg *component.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = &component.Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigurationError("Engine.New", errors.Join(ErrInvalidConfig, err))
	}

	c := &engineConfig{}
	for _, opt := range opts {
		opt(c)
	}
	logger := c.logger
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := executor.PolicyByName(cfg.Execution.GetErrorPolicy(), cfg.Execution.GetAbortWhen())
	if err != nil {
		return nil, NewConfigurationError("Engine.New", err)
	}

	store, owns := c.store, false
	if store == nil {
		store, err = newInterruptStore(cfg.Interruption)
		if err != nil {
			return nil, NewNetworkError("Engine.New", err).WithContext(map[string]any{
				"backend": cfg.Interruption.GetBackend(),
			})
		}
		owns = true
	}

	files := c.files
	if files == nil {
		files, err = newFileSyncer(cfg.Files)
		if err != nil {
			if owns {
				closeStore(store, logger)
			}
			return nil, NewConfigurationError("Engine.New", err)
		}
	}

	poolOpts := []pool.Option{
		pool.WithSize(cfg.Pool.GetSize()),
		pool.WithQueueSize(cfg.Pool.GetQueueSize()),
		pool.WithLogger(logger),
	}
	for depth, n := range cfg.Pool.GetDepthSizes() {
		poolOpts = append(poolOpts, pool.WithDepthSize(depth, n))
	}
	if c.meter != nil {
		poolOpts = append(poolOpts, pool.WithMeter(c.meter))
	}
	pools := pool.NewRegistry(poolOpts...)

	gate := interrupt.NewGate(store, interrupt.WithLogger(logger))

	execOpts := []executor.Option{
		executor.WithPools(pools),
		executor.WithGate(gate),
		executor.WithPolicy(policy),
		executor.WithRecorder(c.recorder),
		executor.WithTracer(c.tracer),
	}
	if files != nil {
		execOpts = append(execOpts, executor.WithFileSyncer(files))
	}
	if c.memory != nil {
		execOpts = append(execOpts, executor.WithMemory(c.memory))
	}

	factory := executor.NewFactory(executor.FactoryConfig{
		Service:      c.service,
		Configurable: c.configurable,
		Tools:        c.tools,
		Options:      execOpts,
		Logger:       logger,
	})

	coordOpts := []executor.CoordinatorOption{
		executor.WithMaxDepth(cfg.Execution.GetMaxDepth()),
		executor.WithCoordinatorLogger(logger),
	}
	if c.finalizer != nil {
		coordOpts = append(coordOpts, executor.WithFinalizer(c.finalizer))
	}

	logger.Info("plan engine created",
		"interruption_backend", cfg.Interruption.GetBackend(),
		"files_backend", cfg.Files.GetBackend(),
		"error_policy", cfg.Execution.GetErrorPolicy(),
		"pool_size", cfg.Pool.GetSize(),
	)

	return &Engine{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		ownsStore:   owns,
		gate:        gate,
		pools:       pools,
		factory:     factory,
		coordinator: executor.NewCoordinator(factory, coordOpts...),
	}, nil
}

func newInterruptStore(cfg *component.InterruptionConfig) (interrupt.Store, error) {
	switch cfg.GetBackend() {
	case component.BackendRedis:
		return interrupt.NewRedisStore(interrupt.RedisOptions{
			URL:            cfg.RedisURL,
			KeyPrefix:      cfg.GetKeyPrefix(),
			TTL:            cfg.GetTTL(),
			ConnectTimeout: cfg.GetDialTimeout(),
		})
	case component.BackendEtcd:
		return interrupt.NewEtcdStore(interrupt.EtcdConfig{
			Endpoints:   cfg.EtcdEndpoints,
			Namespace:   cfg.GetEtcdNamespace(),
			TTL:         int64(cfg.GetTTL() / time.Second),
			DialTimeout: cfg.GetDialTimeout(),
		})
	default:
		return interrupt.NewMemoryStore(), nil
	}
}

func newFileSyncer(cfg *component.FilesConfig) (executor.FileSyncer, error) {
	switch cfg.GetBackend() {
	case component.BackendLocal:
		return &filesync.Local{UploadRoot: cfg.UploadRoot, PlanRoot: cfg.PlanRoot}, nil
	case component.BackendMinIO:
		return filesync.NewMinIO(filesync.MinIOConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
		})
	default:
		return nil, nil
	}
}

func closeStore(store interrupt.Store, logger *slog.Logger) {
	if c, ok := store.(io.Closer); ok {
		CloseWithLog(c, logger, "interrupt store")
	}
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *component.Config {
	return e.cfg
}

// Gate returns the interruption gate shared by every run.
func (e *Engine) Gate() *interrupt.Gate {
	return e.gate
}

// Pools returns the depth-indexed worker pools.
func (e *Engine) Pools() *pool.Registry {
	return e.pools
}

// Factory returns the executor factory.
func (e *Engine) Factory() *executor.Factory {
	return e.factory
}

// Health checks the interruption store, the local file sync directories and the worker pools.
func (e *Engine) Health(ctx context.Context) *health.Report {
	report := health.NewReport()
	report.Add("interrupt_store", health.StoreCheck(ctx, e.store))
	if files := e.cfg.Files; files.GetBackend() == component.BackendLocal {
		report.Add("upload_root", health.DirCheck(files.UploadRoot))
		report.Add("plan_root", health.DirCheck(files.PlanRoot))
	}
	report.Add("pools", health.PoolCheck(e.pools.Stats()))
	return report
}

// Execute runs p as a root plan. Plans without a plan type get the configured default.
func (e *Engine) Execute(ctx context.Context, p *plan.Plan, req executor.Request) *executor.Future {
	if err := e.checkOpen("Engine.Execute"); err != nil {
		return executor.Completed(nil, err)
	}
	if p == nil {
		return executor.Completed(nil, NewValidationError("Engine.Execute", executor.ErrInvalidPlan))
	}
	if p.PlanType == "" {
		p.PlanType = e.cfg.Execution.GetPlanType()
	}
	return e.coordinator.ExecuteByPlan(ctx, p, req)
}

// ExecuteSubPlan runs p as a child of the run described by parent.
func (e *Engine) ExecuteSubPlan(ctx context.Context, parent *plan.ExecutionContext, p *plan.Plan, toolCallID string) *executor.Future {
	if err := e.checkOpen("Engine.ExecuteSubPlan"); err != nil {
		return executor.Completed(nil, err)
	}
	if p == nil || parent == nil {
		return executor.Completed(nil, NewValidationError("Engine.ExecuteSubPlan", executor.ErrInvalidPlan))
	}
	if p.PlanType == "" {
		p.PlanType = e.cfg.Execution.GetPlanType()
	}
	return e.coordinator.ExecuteSubPlan(ctx, parent, p, toolCallID)
}

// Stop asks every run in the tree rooted at rootPlanID to halt at its next step boundary.
func (e *Engine) Stop(ctx context.Context, rootPlanID string) error {
	if err := e.gate.Stop(ctx, rootPlanID); err != nil {
		return NewExecutionError("Engine.Stop", err).WithContext(map[string]any{"root_plan_id": rootPlanID})
	}
	return nil
}

// Close shuts down the worker pools, waiting for queued runs, and closes the
// interruption store if the engine created it.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.pools.Close()
	if e.ownsStore {
		if c, ok := e.store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				return NewNetworkError("Engine.Close", fmt.Errorf("close interrupt store: %w", err))
			}
		}
	}
	e.logger.Info("plan engine closed")
	return nil
}

func (e *Engine) checkOpen(op string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return NewInternalError(op, ErrEngineClosed)
	}
	return nil
}
