package health

import "encoding/json"

// Level orders health states from best to worst.
type Level int

// Levels, best first.
const (
	LevelHealthy Level = iota
	LevelDegraded
	LevelUnhealthy
)

func (l Level) String() string {
	switch l {
	case LevelHealthy:
		return "healthy"
	case LevelDegraded:
		return "degraded"
	default:
		return "unhealthy"
	}
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Status is the outcome of one check.
type Status struct {
	Level   Level          `json:"level"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func (s Status) IsHealthy() bool   { return s.Level == LevelHealthy }
func (s Status) IsDegraded() bool  { return s.Level == LevelDegraded }
func (s Status) IsUnhealthy() bool { return s.Level == LevelUnhealthy }

func healthy(message string) Status {
	return Status{Level: LevelHealthy, Message: message}
}

func degraded(message string, details map[string]any) Status {
	return Status{Level: LevelDegraded, Message: message, Details: details}
}

func unhealthy(message string, details map[string]any) Status {
	return Status{Level: LevelUnhealthy, Message: message, Details: details}
}
