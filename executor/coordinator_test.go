package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/interrupt"
	"github.com/zero-day-ai/planexec/plan"
	"github.com/zero-day-ai/planexec/pool"
)

// nestingService spawns a sub-plan from every SPAWN step until maxDepth,
// where a LEAF step reports its lineage.
type nestingService struct {
	coord    *Coordinator
	maxDepth int

	mu     sync.Mutex
	leaves []agent.Config
}

func (s *nestingService) CreateAgent(_ context.Context, agentType string, cfg agent.Config) (agent.Agent, error) {
	switch agentType {
	case "SPAWN":
		a := newSpyAgent("spawner", "")
		a.run = func(ctx context.Context) (agent.ExecResult, error) {
			parent := &plan.ExecutionContext{
				CurrentPlanID: cfg.CurrentPlanID,
				RootPlanID:    cfg.RootPlanID,
				Depth:         cfg.Depth,
			}
			next := "[SPAWN] go deeper"
			if cfg.Depth+1 >= s.maxDepth {
				next = "[LEAF] report"
			}
			child := plan.New(fmt.Sprintf("child of %s", cfg.CurrentPlanID), next)
			child.PlanType = PlanTypeSimple

			res, err := s.coord.ExecuteSubPlan(ctx, parent, child, "tool-call").Wait(ctx)
			if err != nil {
				return agent.ExecResult{}, err
			}
			return agent.ExecResult{Result: res.EffectiveResult(), State: agent.StateCompleted}, nil
		}
		return a, nil
	case "LEAF":
		s.mu.Lock()
		s.leaves = append(s.leaves, cfg)
		s.mu.Unlock()
		return newSpyAgent("leaf", fmt.Sprintf("leaf at depth %d", cfg.Depth)), nil
	default:
		return nil, agent.ErrUnknownAgentType
	}
}

func newTestCoordinator(t *testing.T, svc agent.Service, pools *pool.Registry, opts ...CoordinatorOption) *Coordinator {
	t.Helper()
	f := NewFactory(FactoryConfig{
		Service: svc,
		Options: []Option{WithPools(pools), WithGate(interrupt.NewGate(nil))},
		Logger:  discardLogger(),
	})
	return NewCoordinator(f, append([]CoordinatorOption{WithCoordinatorLogger(discardLogger())}, opts...)...)
}

func TestNestedSubPlansUseDistinctPools(t *testing.T) {
	// one worker per depth: a shared pool would deadlock on the first nested wait
	pools := pool.NewRegistry(pool.WithSize(1), pool.WithLogger(discardLogger()))
	defer pools.Close()

	svc := &nestingService{maxDepth: 2}
	coord := newTestCoordinator(t, svc, pools)
	svc.coord = coord

	root := plan.New("root", "[SPAWN] start")
	root.PlanType = PlanTypeSimple

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := coord.ExecuteByPlan(ctx, root, Request{CurrentPlanID: "plan-root"}).Wait(ctx)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "leaf at depth 2", res.EffectiveResult())

	require.Len(t, svc.leaves, 1)
	leaf := svc.leaves[0]
	assert.Equal(t, 2, leaf.Depth)
	assert.Equal(t, "plan-root", leaf.RootPlanID)
	assert.True(t, strings.HasPrefix(leaf.CurrentPlanID, "plan-"))
	assert.NotEqual(t, "plan-root", leaf.CurrentPlanID)

	stats := pools.Stats()
	require.Len(t, stats, 3)
	for depth, s := range stats {
		assert.Equal(t, depth, s.Depth)
		assert.Equal(t, 1, s.Size)
	}
	assert.NotSame(t, pools.ForDepth(0), pools.ForDepth(1))
}

func TestSubPlanDepthLimit(t *testing.T) {
	pools := pool.NewRegistry(pool.WithLogger(discardLogger()))
	defer pools.Close()

	svc := &nestingService{maxDepth: 5}
	coord := newTestCoordinator(t, svc, pools, WithMaxDepth(1))
	svc.coord = coord

	parent := &plan.ExecutionContext{CurrentPlanID: "plan-a", RootPlanID: "plan-root", Depth: 1}
	res, err := coord.ExecuteSubPlan(context.Background(), parent, plan.New("too deep", "x"), "call").Get()

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "Direct plan execution failed")
	assert.Contains(t, res.ErrorMessage, ErrDepthExceeded.Error())
}

func TestExecuteByPlanBuildsContext(t *testing.T) {
	pools := pool.NewRegistry(pool.WithLogger(discardLogger()))
	defer pools.Close()

	var got *plan.ExecutionContext
	fin := FinalizerFunc(func(_ context.Context, ec *plan.ExecutionContext, res *plan.ExecutionResult) (*plan.ExecutionResult, error) {
		got = ec
		res.FinalResult = "summary"
		return res, nil
	})

	svc := agent.ServiceFunc(func(context.Context, string, agent.Config) (agent.Agent, error) {
		return newSpyAgent("a", "r"), nil
	})
	coord := newTestCoordinator(t, svc, pools, WithFinalizer(fin))

	p := plan.New("investigate the outage", "[CHECK] logs")
	p.PlanType = PlanTypeSimple

	res, err := coord.Execute(context.Background(), p, true).Get()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, res.Success)
	assert.Equal(t, "summary", res.FinalResult)
	assert.True(t, strings.HasPrefix(got.CurrentPlanID, "plan-"))
	assert.Equal(t, got.CurrentPlanID, got.RootPlanID)
	assert.Equal(t, "investigate the outage", got.UserRequest)
	assert.NotEmpty(t, got.ConversationID)
	assert.True(t, got.NeedSummary)
	assert.True(t, got.Success)
}

func TestNeedSummary(t *testing.T) {
	coord := NewCoordinator(NewFactory(FactoryConfig{Logger: discardLogger()}))

	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"interactive root", Request{Interactive: true}, true},
		{"non interactive", Request{}, false},
		{"tool call", Request{Interactive: true, ToolCallID: "call-1"}, false},
		{"child", Request{Interactive: true, CurrentPlanID: "plan-b", RootPlanID: "plan-a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := coord.newContext(plan.New("p", "x"), tt.req)
			assert.Equal(t, tt.want, ec.NeedSummary)
		})
	}
}

func TestFinalizerError(t *testing.T) {
	pools := pool.NewRegistry(pool.WithLogger(discardLogger()))
	defer pools.Close()

	fin := FinalizerFunc(func(context.Context, *plan.ExecutionContext, *plan.ExecutionResult) (*plan.ExecutionResult, error) {
		return nil, errors.New("summarizer down")
	})
	coord := newTestCoordinator(t, agent.ServiceFunc(func(context.Context, string, agent.Config) (agent.Agent, error) {
		return newSpyAgent("a", "r"), nil
	}), pools, WithFinalizer(fin))

	_, err := coord.Execute(context.Background(), plan.New("p", "x"), false).Get()
	assert.EqualError(t, err, "summarizer down")
}

func TestExecuteByPlanNilPlan(t *testing.T) {
	coord := NewCoordinator(NewFactory(FactoryConfig{Logger: discardLogger()}))

	res, err := coord.ExecuteByPlan(context.Background(), nil, Request{}).Get()
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.ErrorMessage, "Direct plan execution failed: "))
}

func TestRootRunMarksGateStarted(t *testing.T) {
	pools := pool.NewRegistry(pool.WithLogger(discardLogger()))
	defer pools.Close()

	gate := interrupt.NewGate(nil)
	seen := make(chan interrupt.DesiredState, 1)
	svc := agent.ServiceFunc(func(context.Context, string, agent.Config) (agent.Agent, error) {
		a := newSpyAgent("a", "r")
		a.run = func(ctx context.Context) (agent.ExecResult, error) {
			state, _ := gate.State(ctx, "plan-root")
			seen <- state
			return agent.ExecResult{Result: "r", State: agent.StateCompleted}, nil
		}
		return a, nil
	})
	f := NewFactory(FactoryConfig{
		Service: svc,
		Options: []Option{WithPools(pools), WithGate(gate)},
		Logger:  discardLogger(),
	})
	coord := NewCoordinator(f, WithCoordinatorLogger(discardLogger()))

	p := plan.New("p", "[X] x")
	p.PlanType = PlanTypeDirect
	_, err := coord.ExecuteByPlan(context.Background(), p, Request{CurrentPlanID: "plan-root"}).Get()
	require.NoError(t, err)

	assert.Equal(t, interrupt.StateStart, <-seen)
}
