package plan

import (
	"errors"
	"regexp"
	"strings"
)

// ErrAgentAlreadyBound is returned when a step is bound to a second agent in the same run.
var ErrAgentAlreadyBound = errors.New("plan: step agent already bound")

// StepType selects the executor that handles a step.
// It is derived from the leading bracketed tag of the requirement text.
type StepType string

// DefaultAgentType is the step type used when a requirement carries no tag.
const DefaultAgentType StepType = "DEFAULT_AGENT"

// String returns the string representation of the step type.
func (t StepType) String() string {
	return string(t)
}

// IsDefault reports whether the step had no explicit type tag.
func (t StepType) IsDefault() bool {
	return t == DefaultAgentType || t == ""
}

var stepTagPattern = regexp.MustCompile(`^\s*\[([^\]]+)\]`)

// ParseStepType extracts the uppercased tag inside a leading "[...]" of the
// requirement. Requirements without a tag map to DefaultAgentType.
func ParseStepType(requirement string) StepType {
	m := stepTagPattern.FindStringSubmatch(requirement)
	if m == nil {
		return DefaultAgentType
	}
	tag := strings.ToUpper(strings.TrimSpace(m[1]))
	if tag == "" {
		return DefaultAgentType
	}
	return StepType(tag)
}

// StepStatus is the lifecycle state of a single step.
type StepStatus string

const (
	StatusPending     StepStatus = "pending"
	StatusRunning     StepStatus = "running"
	StatusCompleted   StepStatus = "completed"
	StatusInterrupted StepStatus = "interrupted"
	StatusFailed      StepStatus = "failed"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// IsTerminal returns true for completed, interrupted and failed.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusInterrupted, StatusFailed:
		return true
	default:
		return false
	}
}

// BoundAgent is the part of an agent a step needs to remember.
// The full contract lives in package agent.
type BoundAgent interface {
	Name() string
}

// Step is one unit of work within a plan.
type Step struct {
	// Index is the position of the step in its plan. It is refreshed before every run.
	Index int `json:"index"`

	// Requirement is the raw step text, optionally prefixed with a "[TYPE]" tag.
	Requirement string `json:"requirement"`

	// Type is the executor type parsed from Requirement.
	Type StepType `json:"type"`

	Status StepStatus `json:"status"`
	Result string     `json:"result,omitempty"`

	// TerminateColumns describes the expected output shape handed to the agent.
	TerminateColumns string `json:"terminate_columns,omitempty"`

	ModelName        string   `json:"model_name,omitempty"`
	SelectedToolKeys []string `json:"selected_tool_keys,omitempty"`

	agent BoundAgent
}

// NewStep creates a pending step and resolves its type from the requirement.
func NewStep(requirement string) *Step {
	return &Step{
		Requirement: requirement,
		Type:        ParseStepType(requirement),
		Status:      StatusPending,
	}
}

// Agent returns the agent bound for the current run, or nil.
func (s *Step) Agent() BoundAgent {
	return s.agent
}

// AgentName returns the bound agent's name or an empty string.
func (s *Step) AgentName() string {
	if s.agent == nil {
		return ""
	}
	return s.agent.Name()
}

// BindAgent attaches the executor instance for this run. A step can be bound once per run.
func (s *Step) BindAgent(a BoundAgent) error {
	if s.agent != nil {
		return ErrAgentAlreadyBound
	}
	s.agent = a
	return nil
}

// reset clears run state so the step can be executed again.
func (s *Step) reset() {
	s.agent = nil
	s.Status = StatusPending
	s.Result = ""
	if s.Type == "" {
		s.Type = ParseStepType(s.Requirement)
	}
}
