package interrupt

import (
	"context"
	"errors"
	"time"
)

// Common errors returned by stores.
var (
	// ErrNotFound is returned when no record exists for a root plan id.
	ErrNotFound = errors.New("interrupt: task not found")

	// ErrInvalidPlanID is returned for blank root plan ids.
	ErrInvalidPlanID = errors.New("interrupt: invalid root plan id")
)

// DesiredState is what the operator wants a root task to do.
type DesiredState string

const (
	StateStart  DesiredState = "START"
	StateStop   DesiredState = "STOP"
	StateCancel DesiredState = "CANCEL"
	StatePause  DesiredState = "PAUSE"
	StateResume DesiredState = "RESUME"
)

// String returns the string representation of the state.
func (s DesiredState) String() string {
	return string(s)
}

// Interrupts reports whether a task in this state should stop at the next step boundary.
func (s DesiredState) Interrupts() bool {
	return s == StateStop || s == StateCancel || s == StatePause
}

// Record is the stored state of one root task.
type Record struct {
	RootPlanID   string       `json:"root_plan_id"`
	DesiredState DesiredState `json:"desired_state"`
	StartTime    time.Time    `json:"start_time,omitempty"`
	EndTime      time.Time    `json:"end_time,omitempty"`
	LastUpdated  time.Time    `json:"last_updated"`
}

// Store persists task records keyed by root plan id.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the record for rootPlanID or ErrNotFound.
	Get(ctx context.Context, rootPlanID string) (Record, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, rec Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, rootPlanID string) error
}
