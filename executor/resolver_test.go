package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/plan"
)

func TestBuildConfig(t *testing.T) {
	p := plan.New("p", "[SEARCH] find the CVE", "write it up")
	p.CurrentPlanID = "plan-b"
	p.RootPlanID = "plan-a"
	p.ExecutionParams = "region=eu"
	step := p.Steps[1]
	step.ModelName = "small"
	step.SelectedToolKeys = []string{"grep", "missing"}
	step.TerminateColumns = "summary"

	catalog := agent.MapCatalog{"grep": func(context.Context, string) (string, error) { return "", nil }}
	ec := &plan.ExecutionContext{Depth: 2, Plan: p}

	cfg := BuildConfig(step, ec, catalog)

	assert.Equal(t, 1, cfg.CurrentStepIndex)
	assert.Equal(t, "write it up", cfg.StepText)
	assert.Equal(t, "region=eu", cfg.ExtraParams)
	assert.Equal(t, "summary", cfg.ExpectedReturnInfo)
	assert.Equal(t, "small", cfg.ModelName)
	assert.Equal(t, 2, cfg.Depth)
	assert.Equal(t, "plan-b", cfg.CurrentPlanID)
	assert.Equal(t, "plan-a", cfg.RootPlanID)
	assert.Same(t, step, cfg.Step)
	assert.Contains(t, cfg.PlanStatus, "- Plan ID: plan-b")

	require.NotNil(t, cfg.Tools)
	assert.Equal(t, agent.Lineage{CurrentPlanID: "plan-b", RootPlanID: "plan-a", Depth: 2}, cfg.Tools.Lineage())
	assert.Len(t, cfg.Tools.Resolve(cfg.SelectedToolKeys), 1)

	assert.Nil(t, BuildConfig(step, ec, nil).Tools)
}

func TestConfigurableResolver(t *testing.T) {
	var built []agent.Config
	fallbackTypes := []string{}

	r := &ConfigurableResolver{
		Factory: agent.FactoryFunc(func(_ context.Context, cfg agent.Config) (agent.Agent, error) {
			built = append(built, cfg)
			return newSpyAgent("dyna", ""), nil
		}),
		Fallback: &RegistryResolver{Service: agent.ServiceFunc(func(_ context.Context, agentType string, _ agent.Config) (agent.Agent, error) {
			fallbackTypes = append(fallbackTypes, agentType)
			return newSpyAgent(agentType, ""), nil
		})},
	}

	p := plan.New("p", "untagged", "[report] tagged", "[configurabledynaagent] explicit")
	ec := &plan.ExecutionContext{Plan: p}

	assert.Equal(t, ConfigurableAgentType, r.AgentType(p.Steps[0]))
	assert.Equal(t, "REPORT", r.AgentType(p.Steps[1]))

	for _, s := range p.Steps {
		a, err := r.Resolve(context.Background(), s, ec)
		require.NoError(t, err)
		require.NotNil(t, a)
	}

	assert.Len(t, built, 2)
	assert.Equal(t, []string{"REPORT"}, fallbackTypes)
}

func TestConfigurableResolverWithoutCollaborators(t *testing.T) {
	r := &ConfigurableResolver{}
	p := plan.New("p", "untagged", "[X] tagged")
	ec := &plan.ExecutionContext{Plan: p}

	for _, s := range p.Steps {
		a, err := r.Resolve(context.Background(), s, ec)
		assert.NoError(t, err)
		assert.Nil(t, a)
	}

	a, err := (&RegistryResolver{}).Resolve(context.Background(), p.Steps[1], ec)
	assert.NoError(t, err)
	assert.Nil(t, a)
}
