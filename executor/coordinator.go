package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/zero-day-ai/planexec/plan"
)

// Finalizer post-processes a finished run, for example to summarize it.
type Finalizer interface {
	Finalize(ctx context.Context, ec *plan.ExecutionContext, result *plan.ExecutionResult) (*plan.ExecutionResult, error)
}

// FinalizerFunc adapts a function to the Finalizer interface.
type FinalizerFunc func(ctx context.Context, ec *plan.ExecutionContext, result *plan.ExecutionResult) (*plan.ExecutionResult, error)

// Finalize calls f.
func (f FinalizerFunc) Finalize(ctx context.Context, ec *plan.ExecutionContext, result *plan.ExecutionResult) (*plan.ExecutionResult, error) {
	return f(ctx, ec, result)
}

// Request carries the ids and flags for a plan run started through a Coordinator.
// Blank ids are generated.
type Request struct {
	RootPlanID    string
	ParentPlanID  string
	CurrentPlanID string
	ToolCallID    string
	UploadKey     string

	// Interactive marks runs started directly by a user. Only interactive
	// root runs ask for a summary.
	Interactive bool
}

// Coordinator builds execution contexts and dispatches them to the executor
// chosen for each plan's type.
type Coordinator struct {
	factory   *Factory
	finalizer Finalizer
	maxDepth  int
	logger    *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithFinalizer sets a finalizer applied to every run's result.
func WithFinalizer(f Finalizer) CoordinatorOption {
	return func(c *Coordinator) {
		c.finalizer = f
	}
}

// WithMaxDepth limits sub-plan nesting. Zero means unlimited.
func WithMaxDepth(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxDepth = n
		}
	}
}

// WithCoordinatorLogger sets the coordinator's logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a coordinator over factory.
func NewCoordinator(factory *Factory, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{factory: factory, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory returns the executor factory.
func (c *Coordinator) Factory() *Factory {
	return c.factory
}

// NewPlanID returns a fresh plan id.
func NewPlanID() string {
	return "plan-" + uuid.NewString()
}

// Execute runs p as a new root plan.
func (c *Coordinator) Execute(ctx context.Context, p *plan.Plan, interactive bool) *Future {
	return c.ExecuteByPlan(ctx, p, Request{Interactive: interactive})
}

// ExecuteByPlan runs p with the lineage given in req.
// Failures to start the run are reported as a completed, failed result.
func (c *Coordinator) ExecuteByPlan(ctx context.Context, p *plan.Plan, req Request) *Future {
	if p == nil {
		return Completed(plan.Failed("Direct plan execution failed: "+ErrInvalidPlan.Error()), nil)
	}

	ec := c.newContext(p, req)
	return c.run(ctx, ec)
}

// ExecuteSubPlan runs p as a child of the run described by parent.
// The child shares the parent's root id and is scheduled one depth deeper.
func (c *Coordinator) ExecuteSubPlan(ctx context.Context, parent *plan.ExecutionContext, p *plan.Plan, toolCallID string) *Future {
	if parent == nil || p == nil {
		return Completed(plan.Failed("Direct plan execution failed: "+ErrInvalidPlan.Error()), nil)
	}

	currentID := strings.TrimSpace(p.CurrentPlanID)
	if currentID == "" || currentID == parent.CurrentPlanID {
		currentID = NewPlanID()
	}
	ec := parent.Child(currentID, p, toolCallID)
	ec.UploadKey = ""

	if c.maxDepth > 0 && ec.Depth > c.maxDepth {
		err := fmt.Errorf("%w: depth %d > %d", ErrDepthExceeded, ec.Depth, c.maxDepth)
		c.logger.Warn("rejecting sub-plan", "plan_id", currentID, "root_plan_id", ec.RootPlanID, "error", err)
		return Completed(plan.Failed("Direct plan execution failed: "+err.Error()), nil)
	}
	return c.run(ctx, ec)
}

func (c *Coordinator) newContext(p *plan.Plan, req Request) *plan.ExecutionContext {
	currentID := firstNonBlank(req.CurrentPlanID, p.CurrentPlanID)
	if currentID == "" {
		currentID = NewPlanID()
	}
	rootID := firstNonBlank(req.RootPlanID, p.RootPlanID, currentID)
	parentID := firstNonBlank(req.ParentPlanID, p.ParentPlanID)

	userRequest := p.UserRequest
	if userRequest == "" {
		userRequest = p.Title
	}

	ec := &plan.ExecutionContext{
		CurrentPlanID:  currentID,
		RootPlanID:     rootID,
		ParentPlanID:   parentID,
		ToolCallID:     req.ToolCallID,
		UploadKey:      req.UploadKey,
		UserRequest:    userRequest,
		ConversationID: uuid.NewString(),
		Plan:           p,
	}
	if currentID != rootID && parentID == "" {
		ec.ParentPlanID = rootID
	}
	if !ec.IsRoot() {
		ec.Depth = p.Depth
	}
	ec.NeedSummary = req.Interactive && ec.IsRoot() && req.ToolCallID == ""
	return ec
}

func (c *Coordinator) run(ctx context.Context, ec *plan.ExecutionContext) *Future {
	p := ec.Plan
	if strings.TrimSpace(p.PlanType) == "" {
		p.PlanType = PlanTypeDynamicAgent
	}

	e, err := c.factory.ForPlan(p)
	if err != nil {
		return Completed(plan.Failed("Direct plan execution failed: "+err.Error()), nil)
	}

	if ec.IsRoot() {
		if err := e.Gate().Start(ctx, ec.RootPlanID); err != nil {
			c.logger.Warn("failed to mark plan started", "root_plan_id", ec.RootPlanID, "error", err)
		}
	}

	c.logger.Debug("dispatching plan",
		"plan_id", ec.CurrentPlanID,
		"root_plan_id", ec.RootPlanID,
		"depth", ec.Depth,
		"plan_type", p.PlanType,
	)

	f, err := e.ExecuteAllStepsAsync(ctx, ec)
	if err != nil {
		return Completed(plan.Failed("Direct plan execution failed: "+err.Error()), nil)
	}
	if c.finalizer == nil {
		return f
	}
	return f.Then(func(res *plan.ExecutionResult) (*plan.ExecutionResult, error) {
		return c.finalizer.Finalize(ctx, ec, res)
	})
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
