package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/plan"
	"github.com/zero-day-ai/planexec/recorder"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// spyAgent runs a scripted function and counts ClearUp calls.
type spyAgent struct {
	name string
	run  func(ctx context.Context) (agent.ExecResult, error)

	mu       sync.Mutex
	runs     int
	clearUps []string
}

func newSpyAgent(name, result string) *spyAgent {
	return &spyAgent{name: name, run: func(context.Context) (agent.ExecResult, error) {
		return agent.ExecResult{Result: result, State: agent.StateCompleted}, nil
	}}
}

func (a *spyAgent) Name() string { return a.name }

func (a *spyAgent) Run(ctx context.Context) (agent.ExecResult, error) {
	a.mu.Lock()
	a.runs++
	a.mu.Unlock()
	return a.run(ctx)
}

func (a *spyAgent) ClearUp(_ context.Context, planID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearUps = append(a.clearUps, planID)
	return nil
}

func (a *spyAgent) Runs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runs
}

func (a *spyAgent) ClearUps() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.clearUps...)
}

// byIndex resolves the agent at the step's index; missing entries mean no executor.
func byIndex(agents ...agent.Agent) Resolver {
	return ResolverFunc(func(_ context.Context, step *plan.Step, _ *plan.ExecutionContext) (agent.Agent, error) {
		if step.Index >= len(agents) || agents[step.Index] == nil {
			return nil, nil
		}
		return agents[step.Index], nil
	})
}

// spyRecorder counts events per step.
type spyRecorder struct {
	mu         sync.Mutex
	planStarts []recorder.PlanStart
	starts     map[int]int
	ends       map[int]int
	err        error
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{starts: make(map[int]int), ends: make(map[int]int)}
}

func (r *spyRecorder) RecordPlanExecutionStart(_ context.Context, start recorder.PlanStart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planStarts = append(r.planStarts, start)
	return r.err
}

func (r *spyRecorder) RecordStepStart(_ context.Context, step *plan.Step, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts[step.Index]++
	return r.err
}

func (r *spyRecorder) RecordStepEnd(_ context.Context, step *plan.Step, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends[step.Index]++
	return r.err
}

// panicRecorder panics on every event.
type panicRecorder struct{}

func (panicRecorder) RecordPlanExecutionStart(context.Context, recorder.PlanStart) error {
	panic("recorder down")
}
func (panicRecorder) RecordStepStart(context.Context, *plan.Step, string) error {
	panic("recorder down")
}
func (panicRecorder) RecordStepEnd(context.Context, *plan.Step, string) error {
	panic("recorder down")
}

// spyMemory records ClearAgentMemory calls.
type spyMemory struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (m *spyMemory) ClearAgentMemory(_ context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, planID)
	return m.err
}

func (m *spyMemory) Cleared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cleared...)
}

// spyFiles records sync calls.
type spyFiles struct {
	mu    sync.Mutex
	calls [][2]string
}

func (f *spyFiles) SyncUploadedFilesToPlan(_ context.Context, uploadKey, rootPlanID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]string{uploadKey, rootPlanID})
	return errors.New("storage unavailable")
}

func rootContext(p *plan.Plan) *plan.ExecutionContext {
	p.CurrentPlanID = "plan-root"
	p.RootPlanID = "plan-root"
	return &plan.ExecutionContext{
		CurrentPlanID: "plan-root",
		RootPlanID:    "plan-root",
		Plan:          p,
	}
}
