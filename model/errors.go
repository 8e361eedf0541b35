package model

import "fmt"

// InvalidDefinitionError rejects a malformed workflow at registration time.
type InvalidDefinitionError struct {
	Reason string
}

func (e InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid workflow definition: %s", e.Reason)
}

// InvalidTransitionError reports a pause/resume/stop call from a state
// that does not allow it. It is returned to the caller, never panicked.
type InvalidTransitionError struct {
	ExecutionId string
	From        ExecutionStatus
	Op          string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("can not %s execution %s in state %s", e.Op, e.ExecutionId, e.From)
}

type ExecutionNotFoundError struct {
	ExecutionId string
}

func (e ExecutionNotFoundError) Error() string {
	return fmt.Sprintf("execution %s not found", e.ExecutionId)
}

type WorkflowNotFoundError struct {
	WorkflowId string
}

func (e WorkflowNotFoundError) Error() string {
	return fmt.Sprintf("workflow %s not found", e.WorkflowId)
}

type IncidentNotFoundError struct {
	IncidentId string
}

func (e IncidentNotFoundError) Error() string {
	return fmt.Sprintf("incident %s not found", e.IncidentId)
}
