package recorder

import (
	"context"
	"log/slog"

	"github.com/zero-day-ai/planexec/plan"
)

// Log writes lifecycle events as structured log records.
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLog creates a recorder logging at level. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger, level slog.Level) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, level: level}
}

// RecordPlanExecutionStart logs the plan start.
func (l *Log) RecordPlanExecutionStart(ctx context.Context, start PlanStart) error {
	l.logger.Log(ctx, l.level, "plan execution started",
		"plan_id", start.PlanID,
		"root_plan_id", start.RootPlanID,
		"parent_plan_id", start.ParentPlanID,
		"tool_call_id", start.ToolCallID,
		"title", start.Title,
		"steps", len(start.Steps),
	)
	return nil
}

// RecordStepStart logs the step start.
func (l *Log) RecordStepStart(ctx context.Context, step *plan.Step, planID string) error {
	l.logger.Log(ctx, l.level, "step started",
		"plan_id", planID,
		"step_index", step.Index,
		"step_type", step.Type,
		"agent", step.AgentName(),
	)
	return nil
}

// RecordStepEnd logs the step outcome.
func (l *Log) RecordStepEnd(ctx context.Context, step *plan.Step, planID string) error {
	l.logger.Log(ctx, l.level, "step finished",
		"plan_id", planID,
		"step_index", step.Index,
		"status", step.Status,
		"result_length", len(step.Result),
	)
	return nil
}
