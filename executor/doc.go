// Package executor runs plans step by step.
//
// An Executor walks one plan's steps strictly in order on the worker pool
// chosen for the plan's depth. For every step it consults the interruption
// gate, resolves an agent through its Resolver, runs the agent synchronously
// and appends a StepResult snapshot. Cleanup (conversation memory and the
// bound agent's resources) runs exactly once per invocation, whatever the
// outcome.
//
// Resolvers are the polymorphism point. RegistryResolver asks an agent
// Service for the step's type; ConfigurableResolver builds the configurable
// agent for untagged steps and delegates the rest. Factory picks a resolver
// from the plan type and Coordinator builds execution contexts for root
// plans and sub-plans.
//
//	exec := executor.New(resolver,
//	    executor.WithPools(pools),
//	    executor.WithGate(gate),
//	)
//	fut, err := exec.ExecuteAllStepsAsync(ctx, ec)
//	if err != nil {
//	    return err
//	}
//	res, err := fut.Wait(ctx)
package executor
