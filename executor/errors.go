package executor

import "errors"

// Sentinel errors for executor operations.
var (
	// ErrInvalidPlan indicates a nil plan or a plan without a plan type.
	ErrInvalidPlan = errors.New("executor: invalid plan")

	// ErrDepthExceeded indicates a sub-plan deeper than the configured maximum.
	ErrDepthExceeded = errors.New("executor: plan depth exceeds maximum")

	// ErrEngineFault indicates an unexpected failure inside the engine itself.
	ErrEngineFault = errors.New("executor: engine fault")

	// ErrInvalidPolicy indicates an unknown error policy or a bad policy expression.
	ErrInvalidPolicy = errors.New("executor: invalid error policy")
)

// Messages written into results. Callers and agents match on these.
const (
	// InterruptedMessage is the plan-level error after a user stop.
	InterruptedMessage = "Plan execution interrupted by user"

	// StepInterruptedMarker is what an agent writes into its result when it stopped early.
	StepInterruptedMarker = "Execution interrupted by user"

	// NoExecutorMessage prefixes the result of a step whose type resolves to no agent.
	NoExecutorMessage = "No executor found for step type: "

	// ExecutionFailedMessage prefixes the result of a step whose agent failed.
	ExecutionFailedMessage = "Execution failed: "
)
