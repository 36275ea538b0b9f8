package interrupt

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Gate answers "may this plan tree keep going?" at step boundaries.
type Gate struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// serializes read-modify-write updates issued by this process
	mu sync.Mutex
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the gate's logger.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a gate over store. A nil store gets a fresh MemoryStore.
func NewGate(store Store, opts ...GateOption) *Gate {
	if store == nil {
		store = NewMemoryStore()
	}
	g := &Gate{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the backing store.
func (g *Gate) Store() Store {
	return g.store
}

// CheckInterruptionAndContinue returns false once cancellation was requested for rootPlanID.
func (g *Gate) CheckInterruptionAndContinue(ctx context.Context, rootPlanID string) bool {
	if g.ShouldInterrupt(ctx, rootPlanID) {
		g.logger.Info("plan execution interrupted", "root_plan_id", rootPlanID)
		return false
	}
	return true
}

// ShouldInterrupt reports whether the desired state for rootPlanID stops execution.
// Blank ids and store failures never interrupt.
func (g *Gate) ShouldInterrupt(ctx context.Context, rootPlanID string) bool {
	if strings.TrimSpace(rootPlanID) == "" {
		return false
	}

	rec, err := g.store.Get(ctx, rootPlanID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.logger.Error("failed to check interruption status", "root_plan_id", rootPlanID, "error", err)
		}
		return false
	}

	if rec.DesiredState.Interrupts() {
		g.logger.Debug("task should be interrupted", "root_plan_id", rootPlanID, "desired_state", rec.DesiredState)
		return true
	}
	return false
}

// State returns the desired state for rootPlanID, if any.
func (g *Gate) State(ctx context.Context, rootPlanID string) (DesiredState, bool) {
	rec, err := g.store.Get(ctx, rootPlanID)
	if err != nil {
		return "", false
	}
	return rec.DesiredState, true
}

// Start marks the task as running.
func (g *Gate) Start(ctx context.Context, rootPlanID string) error {
	return g.update(ctx, rootPlanID, StateStart)
}

// Stop requests the task stop at the next step boundary.
func (g *Gate) Stop(ctx context.Context, rootPlanID string) error {
	return g.update(ctx, rootPlanID, StateStop)
}

// Cancel requests cancellation.
func (g *Gate) Cancel(ctx context.Context, rootPlanID string) error {
	return g.update(ctx, rootPlanID, StateCancel)
}

// Pause requests a pause. Paused tasks stop like stopped ones.
func (g *Gate) Pause(ctx context.Context, rootPlanID string) error {
	return g.update(ctx, rootPlanID, StatePause)
}

// Resume clears a previous stop, cancel or pause.
func (g *Gate) Resume(ctx context.Context, rootPlanID string) error {
	return g.update(ctx, rootPlanID, StateResume)
}

// Forget drops all state for rootPlanID once its run has completed.
func (g *Gate) Forget(ctx context.Context, rootPlanID string) error {
	if strings.TrimSpace(rootPlanID) == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Delete(ctx, rootPlanID)
}

func (g *Gate) update(ctx context.Context, rootPlanID string, state DesiredState) error {
	if strings.TrimSpace(rootPlanID) == "" {
		return ErrInvalidPlanID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	rec, err := g.store.Get(ctx, rootPlanID)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = Record{RootPlanID: rootPlanID}
	case err != nil:
		return err
	}

	rec.DesiredState = state
	rec.LastUpdated = now
	switch {
	case state == StateStart && rec.StartTime.IsZero():
		rec.StartTime = now
	case state.Interrupts() && rec.EndTime.IsZero():
		rec.EndTime = now
	case state == StateResume:
		rec.EndTime = time.Time{}
	}

	if err := g.store.Put(ctx, rec); err != nil {
		return err
	}
	g.logger.Info("updated task state", "root_plan_id", rootPlanID, "desired_state", state)
	return nil
}
