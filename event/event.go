package event

import (
	"time"

	"github.com/arkosec/responder/model"
)

type Name string

const INCIDENT_CREATED Name = "incidentCreated"
const AUTOMATION_TRIGGERED Name = "automationTriggered"
const WORKFLOW_EXECUTED Name = "workflowExecuted"
const STEP_STARTED Name = "stepStarted"
const WORKFLOW_COMPLETED Name = "workflowCompleted"
const WORKFLOW_FAILED Name = "workflowFailed"
const WORKFLOW_PAUSED Name = "workflowPaused"
const WORKFLOW_RESUMED Name = "workflowResumed"
const WORKFLOW_STOPPED Name = "workflowStopped"

// Event is the lifecycle notification published for any subscriber. The
// engine does not depend on a consumer existing.
type Event struct {
	Name        Name                  `json:"name"`
	ExecutionId string                `json:"executionId,omitempty"`
	WorkflowId  string                `json:"workflowId,omitempty"`
	IncidentId  string                `json:"incidentId,omitempty"`
	Status      model.ExecutionStatus `json:"status,omitempty"`
	Step        int                   `json:"step,omitempty"`
	Progress    int                   `json:"progress,omitempty"`
	Error       string                `json:"error,omitempty"`
	DurationMs  int64                 `json:"durationMs,omitempty"`
	At          time.Time             `json:"at"`
}
