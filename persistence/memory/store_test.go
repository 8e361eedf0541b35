package memory

import (
	"testing"
	"time"

	"github.com/arkosec/responder/model"
	"github.com/stretchr/testify/require"
)

func TestExecutionArchiveRoundTrip(t *testing.T) {
	archive := NewExecutionArchive(0)

	done := time.Now()
	exec := model.Execution{
		Id:          "exec-1",
		WorkflowId:  "wf-1",
		Status:      model.EXECUTION_COMPLETED,
		CurrentStep: 2,
		TotalSteps:  2,
		Progress:    100,
		StartedAt:   done.Add(-time.Second),
		CompletedAt: &done,
	}
	require.NoError(t, archive.Save(exec))

	got, err := archive.Get("exec-1")
	require.NoError(t, err)
	require.Equal(t, exec, *got)

	_, err = archive.Get("missing")
	require.IsType(t, model.ExecutionNotFoundError{}, err)

	all, err := archive.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestExecutionArchiveTTL(t *testing.T) {
	archive := NewExecutionArchive(20 * time.Millisecond)
	require.NoError(t, archive.Save(model.Execution{Id: "exec-1"}))

	require.Eventually(t, func() bool {
		_, err := archive.Get("exec-1")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIncidentStore(t *testing.T) {
	store := NewIncidentStore()
	inc := model.Incident{
		Id:       "inc-1",
		Title:    "ransomware on host-1",
		Type:     "Malware",
		Severity: model.SEVERITY_HIGH,
		Status:   model.INCIDENT_OPEN,
	}
	require.NoError(t, store.Save(inc))

	got, err := store.Get("inc-1")
	require.NoError(t, err)
	require.Equal(t, "ransomware on host-1", got.Title)

	_, err = store.Get("missing")
	require.IsType(t, model.IncidentNotFoundError{}, err)

	require.NoError(t, store.UpdateStatus("inc-1", model.INCIDENT_MITIGATING))
	require.NoError(t, store.AppendAutomatedAction("inc-1", "isolate_endpoint"))
	require.NoError(t, store.AppendAutomatedAction("inc-1", "notify_analyst"))

	got, err = store.Get("inc-1")
	require.NoError(t, err)
	require.Equal(t, model.INCIDENT_MITIGATING, got.Status)
	require.Equal(t, []string{"isolate_endpoint", "notify_analyst"}, got.AutomatedActions)

	require.NoError(t, store.Archive("inc-1"))
	got, err = store.Get("inc-1")
	require.NoError(t, err)
	require.Equal(t, model.INCIDENT_ARCHIVED, got.Status)

	require.Error(t, store.UpdateStatus("missing", model.INCIDENT_RESOLVED))
	require.Error(t, store.AppendAutomatedAction("missing", "x"))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
}
