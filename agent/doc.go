// Package agent defines the contract between the plan executor and the
// pluggable agents that perform a step's actual work.
//
// The executor never constructs agents itself. It asks a construction
// collaborator, either a Service that knows agents by type name or a
// ConfigurableFactory that builds the single configurable agent type, and
// then drives the returned Agent:
//
//	a, err := svc.CreateAgent(ctx, "BROWSER_AGENT", cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := a.Run(ctx)
//	// ...
//	_ = a.ClearUp(ctx, cfg.CurrentPlanID)
//
// Agent implementations own their reasoning loop, LLM calls and tools. The
// executor only consumes the final text result and terminal state.
package agent
