// Package recorder defines the observability sink the plan executor reports
// plan and step lifecycle events to, along with a few stock implementations.
//
// Recording is fire-and-forget: the executor logs recorder errors and keeps
// going, so an unavailable sink never aborts a plan.
package recorder

import (
	"context"
	"errors"

	"github.com/zero-day-ai/planexec/plan"
)

// PlanStart describes a plan run that is about to begin.
type PlanStart struct {
	PlanID       string
	Title        string
	UserRequest  string
	Steps        []*plan.Step
	ParentPlanID string
	RootPlanID   string
	ToolCallID   string
}

// Recorder receives plan lifecycle events.
type Recorder interface {
	RecordPlanExecutionStart(ctx context.Context, start PlanStart) error
	RecordStepStart(ctx context.Context, step *plan.Step, planID string) error
	RecordStepEnd(ctx context.Context, step *plan.Step, planID string) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordPlanExecutionStart(context.Context, PlanStart) error { return nil }
func (Nop) RecordStepStart(context.Context, *plan.Step, string) error { return nil }
func (Nop) RecordStepEnd(context.Context, *plan.Step, string) error { return nil }

// Multi fans events out to several recorders. Every recorder sees every
// event; errors are joined.
type Multi []Recorder

// RecordPlanExecutionStart forwards to all recorders.
func (m Multi) RecordPlanExecutionStart(ctx context.Context, start PlanStart) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordPlanExecutionStart(ctx, start); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordStepStart forwards to all recorders.
func (m Multi) RecordStepStart(ctx context.Context, step *plan.Step, planID string) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordStepStart(ctx, step, planID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordStepEnd forwards to all recorders.
func (m Multi) RecordStepEnd(ctx context.Context, step *plan.Step, planID string) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordStepEnd(ctx, step, planID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
