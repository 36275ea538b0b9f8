// Package plan defines the data model consumed by the plan execution engine.
//
// A Plan is an ordered list of Steps plus lineage identifiers. A root plan has
// Depth 0 and every sub-plan it spawns carries the root's RootPlanID and a
// Depth one greater than its parent. Plans and steps are built by an external
// planning stage and handed to the executor; an ExecutionContext is created per
// invocation and an ExecutionResult is returned to the caller once the run
// finishes.
//
// Step types are resolved once when a step is constructed:
//
//	step := plan.NewStep("[BROWSER_AGENT] open the release notes")
//	step.Type // "BROWSER_AGENT"
//
//	step = plan.NewStep("summarize the findings")
//	step.Type // plan.DefaultAgentType
package plan
