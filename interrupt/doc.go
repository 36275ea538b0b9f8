// Package interrupt implements cooperative cancellation for plan trees.
//
// Cancellation is recorded per root plan id as a desired task state. The plan
// executor consults the Gate between steps and stops once the desired state
// for its root plan is STOP, CANCEL or PAUSE. A step that is already running
// is never preempted, so the worst-case latency to honor a stop request is one
// step's execution time.
//
// The Gate is backed by a Store. MemoryStore serves a single process;
// RedisStore and EtcdStore let several engine processes share cancellation
// state for plan trees whose sub-plans run on different machines.
//
//	gate := interrupt.NewGate(interrupt.NewMemoryStore())
//	_ = gate.Stop(ctx, rootPlanID)
//	if !gate.CheckInterruptionAndContinue(ctx, rootPlanID) {
//	    // stop before the next step
//	}
package interrupt
