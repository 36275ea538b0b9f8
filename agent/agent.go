package agent

import (
	"context"
	"errors"

	"github.com/zero-day-ai/planexec/plan"
)

// ErrUnknownAgentType is returned by a Service that has no agent for the requested type.
var ErrUnknownAgentType = errors.New("agent: unknown agent type")

// State is the terminal state an agent reports after Run.
type State string

const (
	StateNotStarted  State = "NOT_STARTED"
	StateInProgress  State = "IN_PROGRESS"
	StateCompleted   State = "COMPLETED"
	StateInterrupted State = "INTERRUPTED"
	StateFailed      State = "FAILED"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsValid checks if the state is a recognized value.
func (s State) IsValid() bool {
	switch s {
	case StateNotStarted, StateInProgress, StateCompleted, StateInterrupted, StateFailed:
		return true
	default:
		return false
	}
}

// StepStatus maps the agent state onto the step lifecycle.
// Non-terminal or unknown states count as completed because Run has returned.
func (s State) StepStatus() plan.StepStatus {
	switch s {
	case StateInterrupted:
		return plan.StatusInterrupted
	case StateFailed:
		return plan.StatusFailed
	default:
		return plan.StatusCompleted
	}
}

// ExecResult is what an agent returns from Run.
type ExecResult struct {
	Result string
	State  State
}

// Agent executes a single step.
type Agent interface {
	// Name identifies the agent in step results and logs.
	Name() string

	// Run performs the step synchronously and reports its outcome.
	Run(ctx context.Context) (ExecResult, error)

	// ClearUp releases resources the agent holds for the given plan.
	ClearUp(ctx context.Context, planID string) error
}

// Service constructs agents by type name.
type Service interface {
	// CreateAgent returns an agent for agentType configured with cfg.
	// It returns ErrUnknownAgentType when no such agent exists.
	CreateAgent(ctx context.Context, agentType string, cfg Config) (Agent, error)
}

// ConfigurableFactory builds the configurable agent type used for untagged steps.
type ConfigurableFactory interface {
	NewConfigurable(ctx context.Context, cfg Config) (Agent, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, agentType string, cfg Config) (Agent, error)

// CreateAgent calls f.
func (f ServiceFunc) CreateAgent(ctx context.Context, agentType string, cfg Config) (Agent, error) {
	return f(ctx, agentType, cfg)
}

// FactoryFunc adapts a function to the ConfigurableFactory interface.
type FactoryFunc func(ctx context.Context, cfg Config) (Agent, error)

// NewConfigurable calls f.
func (f FactoryFunc) NewConfigurable(ctx context.Context, cfg Config) (Agent, error) {
	return f(ctx, cfg)
}
