package plan

import (
	"fmt"
	"strings"
)

// Plan is an ordered list of steps with lineage identifiers.
type Plan struct {
	CurrentPlanID string `json:"current_plan_id"`
	RootPlanID    string `json:"root_plan_id"`
	ParentPlanID  string `json:"parent_plan_id,omitempty"`

	Title       string `json:"title"`
	UserRequest string `json:"user_request,omitempty"`

	// PlanType selects the executor variant (e.g. "dynamic_agent", "simple").
	PlanType string `json:"plan_type"`

	// ExecutionParams is free-form text passed to every agent as extra parameters.
	ExecutionParams string `json:"execution_params,omitempty"`

	Steps []*Step `json:"steps"`

	// Depth is 0 for a root plan and grows by one per nesting level.
	Depth int `json:"depth"`

	// Result is the aggregated outcome, set by agents or a finalizer.
	Result string `json:"result,omitempty"`
}

// New creates a plan with one step per requirement.
func New(title string, requirements ...string) *Plan {
	p := &Plan{Title: title, Steps: make([]*Step, 0, len(requirements))}
	for _, r := range requirements {
		p.Steps = append(p.Steps, NewStep(r))
	}
	p.UpdateStepIndices()
	return p
}

// AddStep appends a step and returns it.
func (p *Plan) AddStep(requirement string) *Step {
	s := NewStep(requirement)
	s.Index = len(p.Steps)
	p.Steps = append(p.Steps, s)
	return s
}

// IsRoot reports whether the plan is the top of its tree.
func (p *Plan) IsRoot() bool {
	return p.ParentPlanID == "" || p.CurrentPlanID == p.RootPlanID
}

// UpdateStepIndices assigns every step its position in the plan.
func (p *Plan) UpdateStepIndices() {
	for i, s := range p.Steps {
		s.Index = i
	}
}

// Normalize drops nil steps and resolves the type of steps built without NewStep.
func (p *Plan) Normalize() {
	steps := p.Steps[:0]
	for _, s := range p.Steps {
		if s == nil {
			continue
		}
		if s.Type == "" {
			s.Type = ParseStepType(s.Requirement)
		}
		if s.Status == "" {
			s.Status = StatusPending
		}
		steps = append(steps, s)
	}
	p.Steps = steps
}

// ResetForRun clears per-run state on every step and refreshes indices.
func (p *Plan) ResetForRun() {
	p.Normalize()
	for _, s := range p.Steps {
		s.reset()
	}
	p.UpdateStepIndices()
}

// ExecutionStateString renders the plan's progress for injection into agent prompts.
func (p *Plan) ExecutionStateString(includeResults bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Plan ID: %s\n", p.CurrentPlanID)
	if p.Title != "" {
		fmt.Fprintf(&b, "- Title: %s\n", p.Title)
	}
	if p.UserRequest != "" {
		fmt.Fprintf(&b, "- User request: %s\n", p.UserRequest)
	}

	completed := 0
	for _, s := range p.Steps {
		if s.Status == StatusCompleted {
			completed++
		}
	}
	fmt.Fprintf(&b, "- Progress: %d/%d steps completed\n", completed, len(p.Steps))

	b.WriteString("\nSteps:\n")
	for _, s := range p.Steps {
		status := s.Status
		if status == "" {
			status = StatusPending
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", s.Index, status, s.Requirement)
		if includeResults && s.Result != "" {
			fmt.Fprintf(&b, "   Result: %s\n", s.Result)
		}
	}
	return b.String()
}
