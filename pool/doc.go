// Package pool provides depth-isolated worker pools.
//
// A step at depth N may launch a sub-plan at depth N+1 and block until it
// finishes. If both ran on the same pool, a burst of recursive plans could
// occupy every worker with parents waiting for children that never get a
// slot. Registry hands each depth its own Pool, so a child's capacity never
// depends on how saturated its parent's depth is.
//
//	reg := pool.NewRegistry(pool.WithSize(4))
//	defer reg.Close()
//
//	err := reg.ForDepth(ec.Depth).Submit(ctx, func() {
//	    // run the plan
//	})
package pool
