package executor

import (
	"context"
	"sync"

	"github.com/zero-day-ai/planexec/plan"
)

// Future is the pending outcome of an asynchronous plan run.
type Future struct {
	done   chan struct{}
	once   sync.Once
	result *plan.ExecutionResult
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Completed returns a future that is already resolved.
func Completed(result *plan.ExecutionResult, err error) *Future {
	f := newFuture()
	f.complete(result, err)
	return f
}

func (f *Future) complete(result *plan.ExecutionResult, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

// Done is closed once the run has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the run finishes or ctx is done.
// A non-nil error other than ctx's means the engine itself failed.
func (f *Future) Wait(ctx context.Context) (*plan.ExecutionResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get blocks until the run finishes.
func (f *Future) Get() (*plan.ExecutionResult, error) {
	<-f.done
	return f.result, f.err
}

// Then returns a future resolved with fn applied to this future's result.
// fn is not called when this future failed.
func (f *Future) Then(fn func(*plan.ExecutionResult) (*plan.ExecutionResult, error)) *Future {
	next := newFuture()
	go func() {
		res, err := f.Get()
		if err != nil {
			next.complete(res, err)
			return
		}
		next.complete(fn(res))
	}()
	return next
}
