package model

import (
	"math"
	"time"
)

type ExecutionStatus string

const EXECUTION_RUNNING ExecutionStatus = "running"
const EXECUTION_PAUSED ExecutionStatus = "paused"
const EXECUTION_COMPLETED ExecutionStatus = "completed"
const EXECUTION_FAILED ExecutionStatus = "failed"
const EXECUTION_STOPPED ExecutionStatus = "stopped"

func (s ExecutionStatus) Terminal() bool {
	return s == EXECUTION_COMPLETED || s == EXECUTION_FAILED || s == EXECUTION_STOPPED
}

type StepResult struct {
	StepId     int            `json:"stepId"`
	Name       string         `json:"name"`
	Action     string         `json:"action"`
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Execution is one runtime instance of a workflow run against an incident.
// It is mutated only by its owning controller and published to readers as
// copies.
type Execution struct {
	Id          string          `json:"id"`
	WorkflowId  string          `json:"workflowId"`
	IncidentId  string          `json:"incidentId"`
	Status      ExecutionStatus `json:"status"`
	CurrentStep int             `json:"currentStep"`
	TotalSteps  int             `json:"totalSteps"`
	StepResults []StepResult    `json:"stepResults"`
	Progress    int             `json:"progress"`
	Errors      []string        `json:"errors"`
	StartedAt   time.Time       `json:"startedAt"`
	PausedAt    *time.Time      `json:"pausedAt,omitempty"`
	ResumedAt   *time.Time      `json:"resumedAt,omitempty"`
	StoppedAt   *time.Time      `json:"stoppedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Advance moves to the given 1-based step index and keeps the progress
// invariant: progress == round(currentStep/totalSteps*100).
func (e *Execution) Advance(step int) {
	e.CurrentStep = step
	e.Progress = Progress(step, e.TotalSteps)
}

func Progress(currentStep, totalSteps int) int {
	if totalSteps <= 0 {
		return 0
	}
	return int(math.Round(float64(currentStep) / float64(totalSteps) * 100))
}

// Copy returns a snapshot safe to hand to readers while the owning
// controller keeps mutating the original.
func (e *Execution) Copy() Execution {
	cp := *e
	cp.StepResults = append([]StepResult(nil), e.StepResults...)
	cp.Errors = append([]string(nil), e.Errors...)
	return cp
}

// Duration is the wall-clock time of a finished execution.
func (e *Execution) Duration() time.Duration {
	switch {
	case e.CompletedAt != nil:
		return e.CompletedAt.Sub(e.StartedAt)
	case e.StoppedAt != nil:
		return e.StoppedAt.Sub(e.StartedAt)
	default:
		return 0
	}
}
