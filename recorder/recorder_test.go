package recorder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/planexec/plan"
)

type countingRecorder struct {
	starts, stepStarts, stepEnds int
	err                          error
}

func (c *countingRecorder) RecordPlanExecutionStart(context.Context, PlanStart) error {
	c.starts++
	return c.err
}

func (c *countingRecorder) RecordStepStart(context.Context, *plan.Step, string) error {
	c.stepStarts++
	return c.err
}

func (c *countingRecorder) RecordStepEnd(context.Context, *plan.Step, string) error {
	c.stepEnds++
	return c.err
}

func TestMultiFansOut(t *testing.T) {
	ctx := context.Background()
	ok := &countingRecorder{}
	bad := &countingRecorder{err: errors.New("sink down")}
	m := Multi{bad, nil, ok}

	step := plan.NewStep("x")
	err := m.RecordPlanExecutionStart(ctx, PlanStart{PlanID: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	_ = m.RecordStepStart(ctx, step, "p")
	_ = m.RecordStepEnd(ctx, step, "p")

	assert.Equal(t, 1, ok.starts)
	assert.Equal(t, 1, ok.stepStarts)
	assert.Equal(t, 1, ok.stepEnds)
	assert.Equal(t, 1, bad.stepEnds)

	assert.NoError(t, Multi{ok}.RecordStepEnd(ctx, step, "p"))
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewLog(logger, slog.LevelInfo)

	ctx := context.Background()
	step := plan.NewStep("[TOOL] scan")
	step.Status = plan.StatusCompleted

	require.NoError(t, r.RecordPlanExecutionStart(ctx, PlanStart{PlanID: "p1", RootPlanID: "r1", Steps: []*plan.Step{step}}))
	require.NoError(t, r.RecordStepStart(ctx, step, "p1"))
	require.NoError(t, r.RecordStepEnd(ctx, step, "p1"))

	out := buf.String()
	assert.Contains(t, out, `"plan_id":"p1"`)
	assert.Contains(t, out, `"root_plan_id":"r1"`)
	assert.Contains(t, out, `"step_type":"TOOL"`)
	assert.Contains(t, out, `"status":"completed"`)
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.RecordPlanExecutionStart(context.Background(), PlanStart{}))
}
