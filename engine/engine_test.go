package engine

import (
	"testing"
	"time"

	"github.com/arkosec/responder/action"
	"github.com/arkosec/responder/event"
	"github.com/arkosec/responder/executor"
	"github.com/arkosec/responder/model"
	"github.com/arkosec/responder/persistence/memory"
	"github.com/arkosec/responder/registry"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, workflows ...model.Workflow) *Engine {
	t.Helper()
	reg := registry.NewWorkflowRegistry()
	for _, wf := range workflows {
		_, err := reg.Register(wf)
		require.NoError(t, err)
	}
	actions := action.NewRegistry(nil)
	actions.Register("notify_analyst", "", okHandler)
	actions.Register("fail_always", "", failHandler)

	eng := New(
		reg,
		registry.NewPlaybookCatalog(),
		action.NewCatalog(),
		executor.NewStepExecutor(actions),
		event.NewBus(),
		memory.NewIncidentStore(),
		memory.NewExecutionArchive(0),
		4,
	)
	t.Cleanup(func() { _ = eng.Shutdown() })
	return eng
}

func malwareWorkflow(id string, enabled bool) model.Workflow {
	return model.Workflow{
		Id:      id,
		Name:    id,
		Enabled: enabled,
		Trigger: model.Trigger{
			Type: model.TRIGGER_TYPE_ALERT,
			Conditions: map[string]any{
				"alertType": "Malware",
				"severity":  []string{"high", "critical"},
			},
		},
		Steps: []model.Step{
			{Id: 1, Name: "notify", Action: "notify_analyst", TimeoutSeconds: 5},
		},
	}
}

func waitArchived(t *testing.T, eng *Engine, executionId string) model.Execution {
	t.Helper()
	var exec model.Execution
	require.Eventually(t, func() bool {
		got, err := eng.GetExecution(executionId)
		if err != nil || !got.Status.Terminal() {
			return false
		}
		exec = got
		return true
	}, 3*time.Second, 10*time.Millisecond)
	// The controller is released once the execution is archived.
	require.Eventually(t, func() bool {
		eng.mu.RLock()
		defer eng.mu.RUnlock()
		_, live := eng.controllers[executionId]
		return !live
	}, 3*time.Second, 10*time.Millisecond)
	return exec
}

func TestHandleIncidentSpawnsOneExecutionPerMatch(t *testing.T) {
	authWf := model.Workflow{
		Id:      "wf-auth",
		Name:    "wf-auth",
		Enabled: true,
		Trigger: model.Trigger{Type: model.TRIGGER_TYPE_AUTHENTICATION},
		Steps:   []model.Step{{Id: 1, Name: "notify", Action: "notify_analyst", TimeoutSeconds: 5}},
	}
	eng := newTestEngine(t,
		malwareWorkflow("wf-malware", true),
		malwareWorkflow("wf-disabled", false),
		authWf,
	)

	incident, executionIds, err := eng.HandleIncident(model.IncidentCreateRequest{
		Title:    "ransomware on host-1",
		Type:     "Malware",
		Severity: model.SEVERITY_HIGH,
	})
	require.NoError(t, err)
	require.NotEmpty(t, incident.Id)
	require.Equal(t, model.INCIDENT_OPEN, incident.Status)

	// One execution for the enabled malware workflow; the disabled copy and
	// the authentication workflow must not fire.
	require.Len(t, executionIds, 1)

	final := waitArchived(t, eng, executionIds[0])
	require.Equal(t, model.EXECUTION_COMPLETED, final.Status)
	require.Equal(t, "wf-malware", final.WorkflowId)
	require.Equal(t, incident.Id, final.IncidentId)

	// The outcome folds back into the workflow's counters and the incident.
	wf, err := eng.Registry().Get("wf-malware")
	require.NoError(t, err)
	require.Equal(t, 1, wf.ExecutionCount)
	require.Equal(t, 100, wf.SuccessRate)

	stored, err := eng.GetIncident(incident.Id)
	require.NoError(t, err)
	require.Equal(t, []string{"notify_analyst"}, stored.AutomatedActions)
}

func TestHandleIncidentNoMatch(t *testing.T) {
	eng := newTestEngine(t, malwareWorkflow("wf-malware", true))

	_, executionIds, err := eng.HandleIncident(model.IncidentCreateRequest{
		Title:    "low severity noise",
		Type:     "Malware",
		Severity: model.SEVERITY_LOW,
	})
	require.NoError(t, err)
	require.Empty(t, executionIds)
}

func TestExecuteWorkflowManually(t *testing.T) {
	// Disabled workflows may still be run manually.
	eng := newTestEngine(t, malwareWorkflow("wf-malware", false))

	incident, _, err := eng.HandleIncident(model.IncidentCreateRequest{
		Title:    "manual drill",
		Type:     "Authentication",
		Severity: model.SEVERITY_MEDIUM,
	})
	require.NoError(t, err)

	executionId, err := eng.ExecuteWorkflow("wf-malware", incident.Id, map[string]any{"reason": "drill"})
	require.NoError(t, err)
	final := waitArchived(t, eng, executionId)
	require.Equal(t, model.EXECUTION_COMPLETED, final.Status)
}

func TestExecuteWorkflowUnknownIds(t *testing.T) {
	eng := newTestEngine(t, malwareWorkflow("wf-malware", true))

	_, err := eng.ExecuteWorkflow("missing", "also-missing", nil)
	require.IsType(t, model.WorkflowNotFoundError{}, err)

	_, err = eng.ExecuteWorkflow("wf-malware", "missing-incident", nil)
	require.IsType(t, model.IncidentNotFoundError{}, err)
}

func TestControlCallsOnFinishedExecution(t *testing.T) {
	eng := newTestEngine(t, malwareWorkflow("wf-malware", true))

	_, executionIds, err := eng.HandleIncident(model.IncidentCreateRequest{
		Title:    "ransomware",
		Type:     "Malware",
		Severity: model.SEVERITY_CRITICAL,
	})
	require.NoError(t, err)
	require.Len(t, executionIds, 1)
	waitArchived(t, eng, executionIds[0])

	// Finished executions answer control calls with a transition failure,
	// not with not-found.
	err = eng.PauseExecution(executionIds[0])
	require.IsType(t, model.InvalidTransitionError{}, err)
	err = eng.StopExecution(executionIds[0])
	require.IsType(t, model.InvalidTransitionError{}, err)

	err = eng.PauseExecution("never-existed")
	require.IsType(t, model.ExecutionNotFoundError{}, err)
}

func TestFailedExecutionCountsAgainstWorkflow(t *testing.T) {
	wf := malwareWorkflow("wf-flaky", true)
	wf.Steps = []model.Step{
		{Id: 1, Name: "notify", Action: "notify_analyst", TimeoutSeconds: 5},
		{Id: 2, Name: "fail", Action: "fail_always", TimeoutSeconds: 5},
	}
	eng := newTestEngine(t, wf)

	_, executionIds, err := eng.HandleIncident(model.IncidentCreateRequest{
		Title:    "ransomware",
		Type:     "Malware",
		Severity: model.SEVERITY_HIGH,
	})
	require.NoError(t, err)
	require.Len(t, executionIds, 1)

	final := waitArchived(t, eng, executionIds[0])
	require.Equal(t, model.EXECUTION_FAILED, final.Status)
	require.Len(t, final.StepResults, 2)
	require.Len(t, final.Errors, 1)

	stored, err := eng.Registry().Get("wf-flaky")
	require.NoError(t, err)
	require.Equal(t, 1, stored.ExecutionCount)
	require.Equal(t, 0, stored.SuccessRate)

	// The successful first step is still recorded on the incident.
	inc, err := eng.GetIncident(final.IncidentId)
	require.NoError(t, err)
	require.Equal(t, []string{"notify_analyst"}, inc.AutomatedActions)
}

func TestStatisticsFromArchivedHistory(t *testing.T) {
	eng := newTestEngine(t)

	started := time.Now().Add(-time.Minute)
	for i := 0; i < 10; i++ {
		done := started.Add(2 * time.Second)
		require.NoError(t, eng.archive.Save(model.Execution{
			Id:          string(rune('a'+i)) + "-completed",
			Status:      model.EXECUTION_COMPLETED,
			StartedAt:   started,
			CompletedAt: &done,
		}))
	}
	for i := 0; i < 2; i++ {
		done := started.Add(time.Second)
		require.NoError(t, eng.archive.Save(model.Execution{
			Id:          string(rune('a'+i)) + "-failed",
			Status:      model.EXECUTION_FAILED,
			StartedAt:   started,
			CompletedAt: &done,
		}))
	}
	require.NoError(t, eng.incidents.Save(model.Incident{Id: "inc-1", AutomatedActions: []string{"notify_analyst"}}))
	require.NoError(t, eng.incidents.Save(model.Incident{Id: "inc-2"}))

	stats := eng.Statistics()
	require.Equal(t, 12, stats.TotalExecutions)
	require.Equal(t, 10, stats.Completed)
	require.Equal(t, 2, stats.Failed)
	require.Equal(t, 83, stats.SuccessRate)
	require.Equal(t, int64(2000), stats.AvgExecutionMs)
	require.Equal(t, 250, stats.TimeSavedMinutes)
	require.Equal(t, 50, stats.AutomationRate)
}

func TestShutdownStopsLiveExecutions(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	reg := registry.NewWorkflowRegistry()
	wf := malwareWorkflow("wf-slow", true)
	wf.Steps = []model.Step{
		{Id: 1, Name: "slow", Action: "slow", TimeoutSeconds: 30},
		{Id: 2, Name: "notify", Action: "notify_analyst", TimeoutSeconds: 5},
	}
	_, err := reg.Register(wf)
	require.NoError(t, err)

	actions := action.NewRegistry(nil)
	actions.Register("slow", "", blockingHandler(started, release))
	actions.Register("notify_analyst", "", okHandler)

	eng := New(reg, registry.NewPlaybookCatalog(), action.NewCatalog(),
		executor.NewStepExecutor(actions), event.NewBus(),
		memory.NewIncidentStore(), memory.NewExecutionArchive(0), 4)

	_, executionIds, err := eng.HandleIncident(model.IncidentCreateRequest{
		Title:    "ransomware",
		Type:     "Malware",
		Severity: model.SEVERITY_HIGH,
	})
	require.NoError(t, err)
	require.Len(t, executionIds, 1)
	<-started

	shutdownDone := make(chan struct{})
	go func() {
		_ = eng.Shutdown()
		close(shutdownDone)
	}()
	// Shutdown marks the execution stopped, then waits for the in-flight
	// step to return.
	require.Eventually(t, func() bool {
		exec, err := eng.GetExecution(executionIds[0])
		return err == nil && exec.Status == model.EXECUTION_STOPPED
	}, 3*time.Second, 10*time.Millisecond)
	close(release)

	select {
	case <-shutdownDone:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not finish")
	}

	final, err := eng.GetExecution(executionIds[0])
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_STOPPED, final.Status)
}
