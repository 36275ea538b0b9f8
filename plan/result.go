package plan

// StepResult is a snapshot of one executed step.
type StepResult struct {
	StepIndex       int        `json:"step_index"`
	StepRequirement string     `json:"step_requirement"`
	Result          string     `json:"result"`
	Status          StepStatus `json:"status"`
	AgentName       string     `json:"agent_name,omitempty"`
}

// ExecutionResult aggregates the outcome of a plan run.
// It is built once per run and owned by the caller afterwards.
type ExecutionResult struct {
	Success      bool         `json:"success"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StepResults  []StepResult `json:"step_results"`
	FinalResult  string       `json:"final_result,omitempty"`
}

// NewExecutionResult returns an empty, unsuccessful result.
func NewExecutionResult() *ExecutionResult {
	return &ExecutionResult{StepResults: []StepResult{}}
}

// Failed returns a result that carries only an error message.
func Failed(message string) *ExecutionResult {
	r := NewExecutionResult()
	r.ErrorMessage = message
	return r
}

// AddStepResult appends a snapshot of the step.
func (r *ExecutionResult) AddStepResult(s *Step) {
	r.StepResults = append(r.StepResults, StepResult{
		StepIndex:       s.Index,
		StepRequirement: s.Requirement,
		Result:          s.Result,
		Status:          s.Status,
		AgentName:       s.AgentName(),
	})
}

// EffectiveResult returns FinalResult, falling back to the last step's result.
func (r *ExecutionResult) EffectiveResult() string {
	if r.FinalResult != "" {
		return r.FinalResult
	}
	if n := len(r.StepResults); n > 0 {
		return r.StepResults[n-1].Result
	}
	return ""
}
