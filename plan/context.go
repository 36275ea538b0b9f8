package plan

import "errors"

// ErrNoPlan is returned when an execution context carries no plan.
var ErrNoPlan = errors.New("plan: execution context has no plan")

// ExecutionContext carries everything a single plan run needs.
// One is created per invocation and must not be shared between concurrent runs.
type ExecutionContext struct {
	CurrentPlanID string
	RootPlanID    string
	ParentPlanID  string

	// ToolCallID identifies the tool call that spawned this plan, if any.
	ToolCallID string

	// Depth is the recursion level used to pick a worker pool.
	Depth int

	UserRequest string

	// UploadKey names externally uploaded files to sync into the plan's workspace.
	UploadKey string

	ConversationID string
	NeedSummary    bool

	Plan *Plan

	// Success is set by the executor when the run finishes.
	Success bool
}

// Validate checks that the context can be executed.
func (c *ExecutionContext) Validate() error {
	if c == nil || c.Plan == nil {
		return ErrNoPlan
	}
	return nil
}

// IsRoot reports whether this context runs the root of a plan tree.
func (c *ExecutionContext) IsRoot() bool {
	return c.Depth == 0 && (c.ParentPlanID == "" || c.CurrentPlanID == c.RootPlanID)
}

// Child derives the context for a sub-plan launched from this run.
// The child shares the root id and sits one level deeper.
func (c *ExecutionContext) Child(currentPlanID string, p *Plan, toolCallID string) *ExecutionContext {
	child := &ExecutionContext{
		CurrentPlanID:  currentPlanID,
		RootPlanID:     c.RootPlanID,
		ParentPlanID:   c.CurrentPlanID,
		ToolCallID:     toolCallID,
		Depth:          c.Depth + 1,
		ConversationID: c.ConversationID,
		Plan:           p,
	}
	if p != nil {
		child.UserRequest = p.UserRequest
		if child.UserRequest == "" {
			child.UserRequest = p.Title
		}
		p.Depth = child.Depth
	}
	return child
}
