// Package planexec runs hierarchical plans: ordered steps, each executed by
// an agent chosen from the step's "[TYPE]" tag, where a step may itself launch
// a sub-plan and wait for it.
//
// # Architecture
//
// The engine is split into small packages:
//
//   - plan: plans, steps, execution contexts and results
//   - agent: the agent contract and per-step configuration
//   - executor: the step dispatch loop, resolvers, factory and coordinator
//   - pool: one worker pool per nesting depth
//   - interrupt: stop, cancel and pause requests keyed by root plan
//   - recorder, memory, filesync: collaborators invoked around each run
//   - component: engine.yaml loading
//
// Every run is scheduled on the pool for its depth. A parent step that waits
// on a child plan only blocks a worker of its own depth, so nesting can never
// exhaust the workers its children need.
//
// # Getting Started
//
//	cfg, err := component.LoadFromCurrentDir()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine, err := planexec.New(cfg,
//		planexec.WithAgentService(myAgents),
//		planexec.WithLogger(slog.Default()),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	p := plan.New("triage", "[SEARCH] collect the logs", "summarize the incident")
//	res, err := engine.Execute(ctx, p, executor.Request{Interactive: true}).Wait(ctx)
//
// # Interruption
//
// Engine.Stop records a stop request for a root plan. Every run in that plan
// tree checks for it before each step and halts with
// executor.InterruptedMessage. Use the redis or etcd backend to stop plans
// running in another process.
package planexec
