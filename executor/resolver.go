package executor

import (
	"context"
	"strings"

	"github.com/zero-day-ai/planexec/agent"
	"github.com/zero-day-ai/planexec/plan"
)

// ConfigurableAgentType is the agent type untagged steps resolve to under ConfigurableResolver.
const ConfigurableAgentType = "ConfigurableDynaAgent"

// Resolver picks the agent that executes a step.
// Returning a nil agent, or agent.ErrUnknownAgentType, means no executor exists for the step.
type Resolver interface {
	Resolve(ctx context.Context, step *plan.Step, ec *plan.ExecutionContext) (agent.Agent, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, step *plan.Step, ec *plan.ExecutionContext) (agent.Agent, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, step *plan.Step, ec *plan.ExecutionContext) (agent.Agent, error) {
	return f(ctx, step, ec)
}

// BuildConfig collects the settings an agent for step is constructed with.
func BuildConfig(step *plan.Step, ec *plan.ExecutionContext, tools agent.ToolCatalog) agent.Config {
	p := ec.Plan
	lineage := agent.Lineage{
		CurrentPlanID: p.CurrentPlanID,
		RootPlanID:    p.RootPlanID,
		Depth:         ec.Depth,
	}
	return agent.Config{
		PlanStatus:         p.ExecutionStateString(true),
		CurrentStepIndex:   step.Index,
		StepText:           step.Requirement,
		ExtraParams:        p.ExecutionParams,
		ExpectedReturnInfo: step.TerminateColumns,
		ModelName:          step.ModelName,
		SelectedToolKeys:   step.SelectedToolKeys,
		Depth:              ec.Depth,
		CurrentPlanID:      p.CurrentPlanID,
		RootPlanID:         p.RootPlanID,
		Step:               step,
		Tools:              agent.NewScopedTools(tools, lineage),
	}
}

// RegistryResolver asks an agent Service to construct an agent by step type.
type RegistryResolver struct {
	Service agent.Service
	Tools   agent.ToolCatalog
}

// Resolve implements Resolver.
func (r *RegistryResolver) Resolve(ctx context.Context, step *plan.Step, ec *plan.ExecutionContext) (agent.Agent, error) {
	if r.Service == nil {
		return nil, nil
	}
	return r.Service.CreateAgent(ctx, step.Type.String(), BuildConfig(step, ec, r.Tools))
}

// ConfigurableResolver builds the configurable agent for untagged steps and
// hands every other type to Fallback.
type ConfigurableResolver struct {
	Factory agent.ConfigurableFactory
	Tools   agent.ToolCatalog

	// Fallback resolves tagged steps. Nil means tagged steps have no executor.
	Fallback Resolver
}

// AgentType returns the agent type a step resolves to.
func (r *ConfigurableResolver) AgentType(step *plan.Step) string {
	if step.Type.IsDefault() {
		return ConfigurableAgentType
	}
	return step.Type.String()
}

// Resolve implements Resolver.
func (r *ConfigurableResolver) Resolve(ctx context.Context, step *plan.Step, ec *plan.ExecutionContext) (agent.Agent, error) {
	if strings.EqualFold(r.AgentType(step), ConfigurableAgentType) {
		if r.Factory == nil {
			return nil, nil
		}
		return r.Factory.NewConfigurable(ctx, BuildConfig(step, ec, r.Tools))
	}
	if r.Fallback == nil {
		return nil, nil
	}
	return r.Fallback.Resolve(ctx, step, ec)
}
