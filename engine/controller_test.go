package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arkosec/responder/action"
	"github.com/arkosec/responder/event"
	"github.com/arkosec/responder/executor"
	"github.com/arkosec/responder/model"
	"github.com/stretchr/testify/require"
)

func testWorkflow(actions ...string) model.Workflow {
	wf := model.Workflow{
		Id:      "wf-test",
		Name:    "test workflow",
		Enabled: true,
		Trigger: model.Trigger{Type: model.TRIGGER_TYPE_AUTHENTICATION},
	}
	for i, name := range actions {
		wf.Steps = append(wf.Steps, model.Step{Id: i + 1, Name: name, Action: name, TimeoutSeconds: 5})
	}
	return wf
}

func okHandler(ctx context.Context, req action.Request) (action.Result, error) {
	return action.Result{Message: "ok"}, nil
}

func failHandler(ctx context.Context, req action.Request) (action.Result, error) {
	return action.Result{}, errors.New("backend unavailable")
}

// blockingHandler signals on started and waits for release before
// returning, letting tests hold an execution inside a step.
func blockingHandler(started chan struct{}, release chan struct{}) action.Handler {
	return func(ctx context.Context, req action.Request) (action.Result, error) {
		started <- struct{}{}
		<-release
		return action.Result{Message: "ok"}, nil
	}
}

func newController(wf model.Workflow, handlers map[string]action.Handler) *ExecutionController {
	reg := action.NewRegistry(nil)
	for name, h := range handlers {
		reg.Register(name, "", h)
	}
	ex := executor.NewStepExecutor(reg)
	return NewExecutionController(wf, model.Incident{Id: "inc-test"}, nil, ex, event.NewBus(), nil)
}

func TestRunCompletesAllSteps(t *testing.T) {
	wf := testWorkflow("a", "b", "c")
	ctrl := newController(wf, map[string]action.Handler{"a": okHandler, "b": okHandler, "c": okHandler})

	ctrl.Run(context.Background())

	exec := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_COMPLETED, exec.Status)
	require.Len(t, exec.StepResults, 3)
	require.Equal(t, 3, exec.CurrentStep)
	require.Equal(t, 100, exec.Progress)
	require.Empty(t, exec.Errors)
	require.NotNil(t, exec.CompletedAt)
}

func TestFailedStepHaltsRun(t *testing.T) {
	wf := testWorkflow("a", "b", "c")
	ctrl := newController(wf, map[string]action.Handler{"a": okHandler, "b": failHandler, "c": okHandler})

	ctrl.Run(context.Background())

	exec := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_FAILED, exec.Status)
	require.Len(t, exec.StepResults, 2)
	require.Len(t, exec.Errors, 1)
	require.Equal(t, "backend unavailable", exec.Errors[0])
	require.Equal(t, 2, exec.CurrentStep)
	require.Equal(t, 67, exec.Progress)
}

func TestUnknownActionFailsRun(t *testing.T) {
	wf := testWorkflow("missing")
	ctrl := newController(wf, nil)

	ctrl.Run(context.Background())

	exec := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_FAILED, exec.Status)
	require.Len(t, exec.StepResults, 1)
	require.Equal(t, "unknown action: missing", exec.StepResults[0].Error)
}

func TestPauseResumeKeepsProgress(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	wf := testWorkflow("slow", "fast")
	ctrl := newController(wf, map[string]action.Handler{
		"slow": blockingHandler(started, release),
		"fast": okHandler,
	})

	go ctrl.Run(context.Background())
	<-started

	require.NoError(t, ctrl.Pause())
	paused := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_PAUSED, paused.Status)
	require.NotNil(t, paused.PausedAt)

	// Pause immediately followed by resume restores running without
	// touching stepResults or currentStep.
	require.NoError(t, ctrl.Resume())
	resumed := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_RUNNING, resumed.Status)
	require.Equal(t, paused.CurrentStep, resumed.CurrentStep)
	require.Equal(t, len(paused.StepResults), len(resumed.StepResults))
	require.NotNil(t, resumed.ResumedAt)

	close(release)
	select {
	case <-ctrl.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("execution did not finish")
	}
	require.Equal(t, model.EXECUTION_COMPLETED, ctrl.Status())
}

func TestPauseBlocksNextStep(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	wf := testWorkflow("slow", "fast")
	fastRan := make(chan struct{}, 1)
	ctrl := newController(wf, map[string]action.Handler{
		"slow": blockingHandler(started, release),
		"fast": func(ctx context.Context, req action.Request) (action.Result, error) {
			fastRan <- struct{}{}
			return action.Result{}, nil
		},
	})

	go ctrl.Run(context.Background())
	<-started
	require.NoError(t, ctrl.Pause())
	close(release)

	// The second step must not start while paused.
	select {
	case <-fastRan:
		t.Fatal("step started while execution was paused")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, ctrl.Resume())
	select {
	case <-fastRan:
	case <-time.After(3 * time.Second):
		t.Fatal("step did not start after resume")
	}
	<-ctrl.Done()
}

func TestPauseDuringFinalStep(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	wf := testWorkflow("slow")
	ctrl := newController(wf, map[string]action.Handler{
		"slow": blockingHandler(started, release),
	})

	go ctrl.Run(context.Background())
	<-started
	require.NoError(t, ctrl.Pause())
	close(release)

	// With no steps left the run must still hold at the boundary instead
	// of settling while paused.
	select {
	case <-ctrl.Done():
		t.Fatal("execution finished while paused")
	case <-time.After(200 * time.Millisecond):
	}
	require.Equal(t, model.EXECUTION_PAUSED, ctrl.Status())

	require.NoError(t, ctrl.Resume())
	select {
	case <-ctrl.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("execution did not finish")
	}
	exec := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_COMPLETED, exec.Status)
	require.NotNil(t, exec.CompletedAt)
	require.Len(t, exec.StepResults, 1)
}

func TestStopWhilePausedOnFinalStep(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	wf := testWorkflow("slow")
	ctrl := newController(wf, map[string]action.Handler{
		"slow": blockingHandler(started, release),
	})

	go ctrl.Run(context.Background())
	<-started
	require.NoError(t, ctrl.Pause())
	close(release)
	require.NoError(t, ctrl.Stop())

	select {
	case <-ctrl.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("execution did not finish")
	}
	exec := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_STOPPED, exec.Status)
	require.NotNil(t, exec.StoppedAt)
}

func TestIllegalTransitions(t *testing.T) {
	wf := testWorkflow("a")
	ctrl := newController(wf, map[string]action.Handler{"a": okHandler})

	// resume before any pause
	err := ctrl.Resume()
	require.IsType(t, model.InvalidTransitionError{}, err)

	ctrl.Run(context.Background())
	require.Equal(t, model.EXECUTION_COMPLETED, ctrl.Status())

	err = ctrl.Pause()
	require.IsType(t, model.InvalidTransitionError{}, err)
	err = ctrl.Stop()
	require.IsType(t, model.InvalidTransitionError{}, err)
}

func TestStopIsTerminalAndSafeToRepeat(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	wf := testWorkflow("slow", "fast")
	ctrl := newController(wf, map[string]action.Handler{
		"slow": blockingHandler(started, release),
		"fast": okHandler,
	})

	go ctrl.Run(context.Background())
	<-started

	require.NoError(t, ctrl.Stop())
	err := ctrl.Stop()
	require.IsType(t, model.InvalidTransitionError{}, err)

	close(release)
	select {
	case <-ctrl.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("execution did not finish")
	}

	exec := ctrl.Snapshot()
	require.Equal(t, model.EXECUTION_STOPPED, exec.Status)
	require.NotNil(t, exec.StoppedAt)
	// The in-flight step was not preempted; its result is retained.
	require.Len(t, exec.StepResults, 1)
}

func TestStopWhilePaused(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	wf := testWorkflow("slow", "fast")
	ctrl := newController(wf, map[string]action.Handler{
		"slow": blockingHandler(started, release),
		"fast": okHandler,
	})

	go ctrl.Run(context.Background())
	<-started
	require.NoError(t, ctrl.Pause())
	close(release)
	require.NoError(t, ctrl.Stop())

	select {
	case <-ctrl.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("execution did not finish")
	}
	require.Equal(t, model.EXECUTION_STOPPED, ctrl.Status())
}

func TestLifecycleEvents(t *testing.T) {
	reg := action.NewRegistry(nil)
	reg.Register("a", "", okHandler)
	bus := event.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	wf := testWorkflow("a")
	ctrl := NewExecutionController(wf, model.Incident{Id: "inc-test"}, nil, executor.NewStepExecutor(reg), bus, nil)
	go ctrl.Run(context.Background())

	seen := map[event.Name]event.Event{}
	deadline := time.After(3 * time.Second)
	for len(seen) < 3 {
		select {
		case ev := <-events:
			seen[ev.Name] = ev
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", seen)
		}
	}
	require.Contains(t, seen, event.WORKFLOW_EXECUTED)
	require.Contains(t, seen, event.STEP_STARTED)
	require.Contains(t, seen, event.WORKFLOW_COMPLETED)

	final := seen[event.WORKFLOW_COMPLETED]
	require.Equal(t, model.EXECUTION_COMPLETED, final.Status)
	require.Equal(t, 100, final.Progress)

	stepEv := seen[event.STEP_STARTED]
	require.Equal(t, model.Progress(stepEv.Step, 1), stepEv.Progress)
}
