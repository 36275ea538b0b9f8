package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/zero-day-ai/planexec/plan"
)

// Policy names accepted by PolicyByName.
const (
	PolicyContinue = "continue"
	PolicyAbort    = "abort"
	PolicyExpr     = "expr"
)

// ErrorPolicy decides whether a failed step stops the rest of the plan.
type ErrorPolicy interface {
	ShouldAbort(ctx context.Context, step *plan.Step) (bool, error)
}

// ContinueOnError keeps executing after failed steps.
type ContinueOnError struct{}

// ShouldAbort always returns false.
func (ContinueOnError) ShouldAbort(context.Context, *plan.Step) (bool, error) { return false, nil }

// AbortOnError stops the plan at the first failed step.
type AbortOnError struct{}

// ShouldAbort always returns true.
func (AbortOnError) ShouldAbort(context.Context, *plan.Step) (bool, error) { return true, nil }

// ExprPolicy aborts when a CEL expression over the failed step evaluates to true.
//
// The expression sees a single map variable "step" with keys index, type,
// status, result, requirement and agent:
//
//	step.type == "DATABASE" || step.result.contains("permission denied")
type ExprPolicy struct {
	expr    string
	program cel.Program
}

// NewExprPolicy compiles expr.
func NewExprPolicy(expr string) (*ExprPolicy, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidPolicy)
	}

	env, err := cel.NewEnv(cel.Variable("step", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, iss.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return &ExprPolicy{expr: expr, program: prg}, nil
}

// String returns the source expression.
func (p *ExprPolicy) String() string {
	return p.expr
}

// ShouldAbort evaluates the expression for step.
func (p *ExprPolicy) ShouldAbort(_ context.Context, step *plan.Step) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		"step": map[string]any{
			"index":       step.Index,
			"type":        step.Type.String(),
			"status":      step.Status.String(),
			"result":      step.Result,
			"requirement": step.Requirement,
			"agent":       step.AgentName(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("evaluate error policy %q: %w", p.expr, err)
	}

	abort, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression %q returned %T, want bool", ErrInvalidPolicy, p.expr, out.Value())
	}
	return abort, nil
}

// PolicyByName builds a policy from configuration. expr is only used by PolicyExpr.
func PolicyByName(name, expr string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyContinue:
		return ContinueOnError{}, nil
	case PolicyAbort:
		return AbortOnError{}, nil
	case PolicyExpr:
		return NewExprPolicy(expr)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}
