package persistence

import (
	"fmt"

	"github.com/arkosec/responder/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// ExecutionArchive retains finished executions for statistics and audit.
// Live executions are owned by their controllers and only archived once
// they reach a terminal state.
type ExecutionArchive interface {
	Save(exec model.Execution) error
	Get(id string) (*model.Execution, error)
	List() ([]model.Execution, error)
}

// IncidentStore holds incident records. Incidents are never deleted;
// Archive flips the status instead.
type IncidentStore interface {
	Save(inc model.Incident) error
	Get(id string) (*model.Incident, error)
	List() ([]model.Incident, error)
	UpdateStatus(id string, status model.IncidentStatus) error
	AppendAutomatedAction(id string, action string) error
	Archive(id string) error
}
