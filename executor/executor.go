package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/interrupt"
	"github.com/zero-day-ai/planexec/plan"
	"github.com/zero-day-ai/planexec/pool"
	"github.com/zero-day-ai/planexec/recorder"
)

// FileSyncer copies externally uploaded files into a plan tree's workspace.
type FileSyncer interface {
	SyncUploadedFilesToPlan(ctx context.Context, uploadKey, rootPlanID string) error
}

// MemoryCleaner drops agent conversation state for a plan.
type MemoryCleaner interface {
	ClearAgentMemory(ctx context.Context, planID string) error
}

// Executor runs the steps of a plan sequentially on the worker pool for the plan's depth.
type Executor struct {
	resolver Resolver
	pools    *pool.Registry
	gate     *interrupt.Gate
	recorder recorder.Recorder
	files    FileSyncer
	memory   MemoryCleaner
	policy   ErrorPolicy
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithPools sets the pool registry runs are submitted to.
func WithPools(r *pool.Registry) Option {
	return func(e *Executor) {
		if r != nil {
			e.pools = r
		}
	}
}

// WithGate sets the interruption gate consulted before every step.
func WithGate(g *interrupt.Gate) Option {
	return func(e *Executor) {
		if g != nil {
			e.gate = g
		}
	}
}

// WithRecorder sets the lifecycle event sink.
func WithRecorder(r recorder.Recorder) Option {
	return func(e *Executor) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithFileSyncer sets the uploaded file syncer.
func WithFileSyncer(f FileSyncer) Option {
	return func(e *Executor) {
		e.files = f
	}
}

// WithMemory sets the agent memory cleared after each run.
func WithMemory(m MemoryCleaner) Option {
	return func(e *Executor) {
		e.memory = m
	}
}

// WithPolicy sets what happens after a failed step. Defaults to ContinueOnError.
func WithPolicy(p ErrorPolicy) Option {
	return func(e *Executor) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for plan and step spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an executor that resolves step agents through resolver.
// Without WithPools and WithGate the executor gets a private registry and an in-memory gate.
func New(resolver Resolver, opts ...Option) *Executor {
	e := &Executor{
		resolver: resolver,
		recorder: recorder.Nop{},
		policy:   ContinueOnError{},
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("planexec"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = ResolverFunc(func(context.Context, *plan.Step, *plan.ExecutionContext) (agent.Agent, error) {
			return nil, nil
		})
	}
	if e.pools == nil {
		e.pools = pool.NewRegistry(pool.WithLogger(e.logger))
	}
	if e.gate == nil {
		e.gate = interrupt.NewGate(nil, interrupt.WithLogger(e.logger))
	}
	return e
}

// Pools returns the registry runs are submitted to.
func (e *Executor) Pools() *pool.Registry {
	return e.pools
}

// Gate returns the interruption gate.
func (e *Executor) Gate() *interrupt.Gate {
	return e.gate
}

// ExecuteAllStepsAsync schedules the plan in ec on the pool for ec.Depth and
// returns immediately. Step failures are reported in the result, never as an
// error; the returned error is only set when the run could not be scheduled.
//
// A step that launches a sub-plan and waits on its future blocks a worker of
// its own depth only. The sub-plan runs on the next depth's pool.
func (e *Executor) ExecuteAllStepsAsync(ctx context.Context, ec *plan.ExecutionContext) (*Future, error) {
	if err := ec.Validate(); err != nil {
		return Completed(plan.Failed(err.Error()), nil), nil
	}

	f := newFuture()
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				f.complete(nil, fmt.Errorf("%w: %v", ErrEngineFault, r))
			}
		}()
		f.complete(e.execute(ctx, ec), nil)
	}

	if err := e.pools.ForDepth(ec.Depth).Submit(ctx, task); err != nil {
		return nil, fmt.Errorf("%w: submit plan %s at depth %d: %v", ErrEngineFault, ec.CurrentPlanID, ec.Depth, err)
	}
	return f, nil
}

// Execute runs the plan on the calling goroutine and returns its result.
func (e *Executor) Execute(ctx context.Context, ec *plan.ExecutionContext) *plan.ExecutionResult {
	if err := ec.Validate(); err != nil {
		return plan.Failed(err.Error())
	}
	return e.execute(ctx, ec)
}

func (e *Executor) execute(ctx context.Context, ec *plan.ExecutionContext) (result *plan.ExecutionResult) {
	p := ec.Plan
	prepare(ec)

	logger := e.logger.With(
		"plan_id", p.CurrentPlanID,
		"root_plan_id", p.RootPlanID,
		"depth", ec.Depth,
	)

	ctx, span := e.tracer.Start(ctx, "plan.execute", trace.WithAttributes(
		attribute.String("plan.id", p.CurrentPlanID),
		attribute.String("plan.root_id", p.RootPlanID),
		attribute.String("plan.type", p.PlanType),
		attribute.Int("plan.depth", ec.Depth),
		attribute.Int("plan.steps", len(p.Steps)),
	))

	result = plan.NewExecutionResult()
	var last agent.Agent

	defer span.End()
	defer func() {
		e.cleanup(ctx, ec, last, logger)
		ec.Success = result.Success
		if !result.Success {
			span.SetStatus(codes.Error, result.ErrorMessage)
		}
		span.SetAttributes(attribute.Bool("plan.success", result.Success))
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("plan execution panicked", "panic", r)
			result.Success = false
			result.ErrorMessage = fmt.Sprint(r)
		}
	}()

	e.syncFiles(ctx, ec, logger)
	e.recordPlanStart(ctx, ec, logger)

	logger.Info("plan execution started", "steps", len(p.Steps))

	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("plan execution cancelled", "step_index", step.Index, "error", err)
			result.ErrorMessage = err.Error()
			return result
		}

		if !e.gate.CheckInterruptionAndContinue(ctx, p.RootPlanID) {
			result.ErrorMessage = InterruptedMessage
			return result
		}

		if a := e.executeStep(ctx, ec, step, logger); a != nil {
			last = a
		}
		result.AddStepResult(step)

		if step.Status == plan.StatusInterrupted || strings.Contains(step.Result, StepInterruptedMarker) {
			logger.Info("plan execution interrupted during step", "step_index", step.Index)
			result.ErrorMessage = InterruptedMessage
			return result
		}

		if step.Status == plan.StatusFailed && e.abort(ctx, step, logger) {
			result.ErrorMessage = fmt.Sprintf("step %d failed: %s", step.Index, step.Result)
			return result
		}
	}

	result.Success = true
	result.FinalResult = p.Result
	logger.Info("plan execution completed", "steps", len(result.StepResults))
	return result
}

// prepare copies lineage from the context onto the plan and resets step state.
func prepare(ec *plan.ExecutionContext) {
	p := ec.Plan
	if ec.CurrentPlanID != "" {
		p.CurrentPlanID = ec.CurrentPlanID
	}
	if ec.RootPlanID != "" {
		p.RootPlanID = ec.RootPlanID
	}
	if ec.ParentPlanID != "" {
		p.ParentPlanID = ec.ParentPlanID
	}
	if ec.UserRequest != "" && p.UserRequest == "" {
		p.UserRequest = ec.UserRequest
	}
	p.Depth = ec.Depth
	p.ResetForRun()
}

// executeStep runs one step and returns the agent bound to it, if any.
// The step's status and result are always terminal when it returns.
func (e *Executor) executeStep(ctx context.Context, ec *plan.ExecutionContext, step *plan.Step, logger *slog.Logger) (bound agent.Agent) {
	planID := ec.Plan.CurrentPlanID
	logger = logger.With("step_index", step.Index, "step_type", step.Type.String())

	ctx, span := e.tracer.Start(ctx, "plan.step", trace.WithAttributes(
		attribute.String("plan.id", planID),
		attribute.Int("step.index", step.Index),
		attribute.String("step.type", step.Type.String()),
	))
	defer span.End()
	defer e.recordStepEnd(ctx, step, planID, logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("step execution panicked", "panic", r)
			step.Status = plan.StatusFailed
			step.Result = ExecutionFailedMessage + fmt.Sprint(r)
		}
		span.SetAttributes(
			attribute.String("step.status", step.Status.String()),
			attribute.String("step.agent", step.AgentName()),
		)
		if step.Status == plan.StatusFailed {
			span.SetStatus(codes.Error, step.Result)
		}
	}()

	a, err := e.resolver.Resolve(ctx, step, ec)
	if err != nil && !errors.Is(err, agent.ErrUnknownAgentType) {
		logger.Error("failed to resolve step agent", "error", err)
		step.Status = plan.StatusFailed
		step.Result = ExecutionFailedMessage + err.Error()
		return nil
	}
	if a == nil || err != nil {
		logger.Warn("no executor found for step")
		step.Status = plan.StatusFailed
		step.Result = NoExecutorMessage + step.Type.String()
		return nil
	}

	if err := step.BindAgent(a); err != nil {
		step.Status = plan.StatusFailed
		step.Result = ExecutionFailedMessage + err.Error()
		return nil
	}
	bound = a
	step.Status = plan.StatusRunning
	e.recordStepStart(ctx, step, planID, logger)

	logger.Debug("step started", "agent", a.Name())

	res, err := a.Run(ctx)
	if err != nil {
		logger.Error("step execution failed", "agent", a.Name(), "error", err)
		step.Status = plan.StatusFailed
		step.Result = ExecutionFailedMessage + err.Error()
		return bound
	}

	step.Result = res.Result
	step.Status = res.State.StepStatus()
	logger.Debug("step finished", "agent", a.Name(), "status", step.Status)
	return bound
}

func (e *Executor) abort(ctx context.Context, step *plan.Step, logger *slog.Logger) bool {
	abort, err := e.policy.ShouldAbort(ctx, step)
	if err != nil {
		logger.Error("error policy evaluation failed", "step_index", step.Index, "error", err)
		return false
	}
	if abort {
		logger.Warn("aborting plan after failed step", "step_index", step.Index)
	}
	return abort
}

func (e *Executor) syncFiles(ctx context.Context, ec *plan.ExecutionContext, logger *slog.Logger) {
	if e.files == nil {
		return
	}
	uploadKey := strings.TrimSpace(ec.UploadKey)
	rootID := strings.TrimSpace(ec.Plan.RootPlanID)
	if uploadKey == "" || rootID == "" {
		return
	}
	safely(logger, "failed to sync uploaded files", func() error {
		return e.files.SyncUploadedFilesToPlan(ctx, uploadKey, rootID)
	})
}

func (e *Executor) recordPlanStart(ctx context.Context, ec *plan.ExecutionContext, logger *slog.Logger) {
	p := ec.Plan
	safely(logger, "failed to record plan start", func() error {
		return e.recorder.RecordPlanExecutionStart(ctx, recorder.PlanStart{
			PlanID:       p.CurrentPlanID,
			Title:        p.Title,
			UserRequest:  p.UserRequest,
			Steps:        p.Steps,
			ParentPlanID: p.ParentPlanID,
			RootPlanID:   p.RootPlanID,
			ToolCallID:   ec.ToolCallID,
		})
	})
}

func (e *Executor) recordStepStart(ctx context.Context, step *plan.Step, planID string, logger *slog.Logger) {
	safely(logger, "failed to record step start", func() error {
		return e.recorder.RecordStepStart(ctx, step, planID)
	})
}

func (e *Executor) recordStepEnd(ctx context.Context, step *plan.Step, planID string, logger *slog.Logger) {
	safely(logger, "failed to record step end", func() error {
		return e.recorder.RecordStepEnd(context.WithoutCancel(ctx), step, planID)
	})
}

// cleanup runs once per plan run. It never changes the result.
func (e *Executor) cleanup(ctx context.Context, ec *plan.ExecutionContext, last agent.Agent, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)
	p := ec.Plan

	if e.memory != nil {
		safely(logger, "failed to clear agent memory", func() error {
			return e.memory.ClearAgentMemory(ctx, p.CurrentPlanID)
		})
	}
	if last != nil {
		safely(logger, "failed to clear up agent", func() error {
			return last.ClearUp(ctx, p.CurrentPlanID)
		})
	}
	if ec.IsRoot() {
		safely(logger, "failed to forget interruption state", func() error {
			return e.gate.Forget(ctx, p.RootPlanID)
		})
	}
}

// safely runs fn, logging its error or panic under msg.
func safely(logger *slog.Logger, msg string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(msg, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		logger.Error(msg, "error", err)
	}
}
