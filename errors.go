package planexec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for engine-level conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEngineClosed indicates the engine was used after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// Error kinds categorize errors by their type.
const (
	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindExecution represents errors that occur during execution.
	KindExecution = "execution"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindNetwork represents errors related to network operations.
	KindNetwork = "network"

	// KindInternal represents internal engine errors.
	KindInternal = "internal"
)

// EngineError is a structured error type that wraps underlying errors with
// the operation that failed and the category of error.
//
// EngineError supports error unwrapping, making it compatible with
// errors.Is() and errors.As().
//
// Example usage:
//
//	err := &EngineError{
//		Op:   "Engine.New",
//		Kind: KindConfiguration,
//		Err:  ErrInvalidConfig,
//	}
type EngineError struct {
	// Op is the operation that failed (e.g., "Engine.New", "Engine.Stop").
	Op string

	// Kind categorizes the error (e.g., KindConfiguration, KindNetwork).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	Context map[string]any
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("planexec: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("planexec: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("planexec: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches another EngineError by Kind (and Op when the target sets one),
// then falls back to the underlying error.
func (e *EngineError) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*EngineError); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with ctx merged into its context.
func (e *EngineError) WithContext(ctx map[string]any) *EngineError {
	newErr := *e
	newErr.Context = make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		newErr.Context[k] = v
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewValidationError creates a new EngineError with KindValidation.
func NewValidationError(op string, err error) *EngineError {
	return &EngineError{Op: op, Kind: KindValidation, Err: err}
}

// NewExecutionError creates a new EngineError with KindExecution.
func NewExecutionError(op string, err error) *EngineError {
	return &EngineError{Op: op, Kind: KindExecution, Err: err}
}

// NewConfigurationError creates a new EngineError with KindConfiguration.
func NewConfigurationError(op string, err error) *EngineError {
	return &EngineError{Op: op, Kind: KindConfiguration, Err: err}
}

// NewNetworkError creates a new EngineError with KindNetwork.
func NewNetworkError(op string, err error) *EngineError {
	return &EngineError{Op: op, Kind: KindNetwork, Err: err}
}

// NewInternalError creates a new EngineError with KindInternal.
func NewInternalError(op string, err error) *EngineError {
	return &EngineError{Op: op, Kind: KindInternal, Err: err}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. If logger is nil, slog.Default() is used.
//
//	defer planexec.CloseWithLog(store, logger, "interrupt store")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
