package agent

import (
	"strconv"

	"github.com/zero-day-ai/planexec/plan"
)

// Keys of the settings map handed to agents.
const (
	PlanStatusKey       = "planStatus"
	CurrentStepIndexKey = "currentStepIndex"
	StepTextKey         = "stepText"
	ExtraParamsKey      = "extraParams"
)

// Config carries the per-step settings an agent is constructed with.
type Config struct {
	// PlanStatus is a snapshot of the whole plan's progress.
	PlanStatus       string
	CurrentStepIndex int
	StepText         string
	ExtraParams      string

	// ExpectedReturnInfo is the step's terminate columns.
	ExpectedReturnInfo string

	ModelName        string
	SelectedToolKeys []string

	Depth         int
	CurrentPlanID string
	RootPlanID    string

	Step *plan.Step

	// Tools resolves tool callbacks within this plan's lineage. May be nil.
	Tools *ScopedTools
}

// Settings returns the init settings map in the form agents read it.
func (c Config) Settings() map[string]any {
	return map[string]any{
		PlanStatusKey:       c.PlanStatus,
		CurrentStepIndexKey: strconv.Itoa(c.CurrentStepIndex),
		StepTextKey:         c.StepText,
		ExtraParamsKey:      c.ExtraParams,
	}
}
