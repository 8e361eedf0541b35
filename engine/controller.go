package engine

import (
	"context"
	"sync"
	"time"

	"github.com/arkosec/responder/event"
	"github.com/arkosec/responder/executor"
	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionController owns the lifecycle of one running workflow instance.
// It is the only writer of its Execution; readers get copies. Control
// requests are honored cooperatively at step boundaries, never mid-step.
type ExecutionController struct {
	mu        sync.Mutex
	execution *model.Execution
	workflow  model.Workflow
	incident  model.Incident
	params    map[string]any

	executor *executor.StepExecutor
	bus      *event.Bus

	// resumeCh is replaced on every pause and closed on resume; stopCh is
	// closed exactly once, by the first successful Stop.
	resumeCh chan struct{}
	stopCh   chan struct{}
	done     chan struct{}

	onFinish func(exec model.Execution)
}

func NewExecutionController(
	workflow model.Workflow,
	incident model.Incident,
	params map[string]any,
	stepExecutor *executor.StepExecutor,
	bus *event.Bus,
	onFinish func(exec model.Execution),
) *ExecutionController {
	if params == nil {
		params = map[string]any{}
	}
	exec := &model.Execution{
		Id:         uuid.NewString(),
		WorkflowId: workflow.Id,
		IncidentId: incident.Id,
		Status:     model.EXECUTION_RUNNING,
		TotalSteps: len(workflow.Steps),
		StartedAt:  time.Now(),
	}
	return &ExecutionController{
		execution: exec,
		workflow:  workflow,
		incident:  incident,
		params:    params,
		executor:  stepExecutor,
		bus:       bus,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		onFinish:  onFinish,
	}
}

func (c *ExecutionController) ExecutionId() string {
	return c.execution.Id
}

// Snapshot returns a copy safe for concurrent readers.
func (c *ExecutionController) Snapshot() model.Execution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execution.Copy()
}

func (c *ExecutionController) Status() model.ExecutionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execution.Status
}

// Done is closed when the run loop has finished and the execution has been
// handed to onFinish.
func (c *ExecutionController) Done() <-chan struct{} {
	return c.done
}

// Run executes the workflow's steps in order. Steps are strictly
// sequential; a failed step halts the run with partial results retained.
func (c *ExecutionController) Run(ctx context.Context) {
	defer close(c.done)

	c.publish(event.WORKFLOW_EXECUTED, "")
	logger.Info("workflow execution started",
		zap.String("workflow", c.workflow.Id),
		zap.String("execution", c.execution.Id),
		zap.String("incident", c.incident.Id))

	for i, step := range c.workflow.Steps {
		if !c.gate() {
			break
		}

		c.mu.Lock()
		c.execution.Advance(i + 1)
		c.mu.Unlock()
		c.publish(event.STEP_STARTED, "")

		result := c.executor.Execute(ctx, step, c.incident, c.params)

		c.mu.Lock()
		c.execution.StepResults = append(c.execution.StepResults, result)
		// A stop observed mid-step wins over the step's outcome.
		failed := !result.Success && c.execution.Status != model.EXECUTION_STOPPED
		if failed {
			now := time.Now()
			c.execution.Status = model.EXECUTION_FAILED
			c.execution.Errors = append(c.execution.Errors, result.Error)
			c.execution.CompletedAt = &now
		}
		c.mu.Unlock()

		if failed {
			logger.Error("workflow step failed",
				zap.String("execution", c.execution.Id),
				zap.Int("step", step.Id),
				zap.String("action", step.Action),
				zap.String("error", result.Error))
			c.publish(event.WORKFLOW_FAILED, result.Error)
			break
		}
	}

	// The end of the step list is a boundary like any other: a pause that
	// landed while the last step was in flight must wait for resume or
	// stop before the run settles on a terminal status.
	c.gate()

	c.mu.Lock()
	if c.execution.Status == model.EXECUTION_RUNNING {
		now := time.Now()
		c.execution.Status = model.EXECUTION_COMPLETED
		c.execution.CompletedAt = &now
	}
	final := c.execution.Copy()
	c.mu.Unlock()

	c.publishFinal(final)
	logger.Info("workflow execution finished",
		zap.String("execution", final.Id),
		zap.String("status", string(final.Status)),
		zap.Duration("duration", final.Duration()))

	if c.onFinish != nil {
		c.onFinish(final)
	}
}

// gate blocks while paused and reports whether the next step may start.
func (c *ExecutionController) gate() bool {
	for {
		c.mu.Lock()
		status := c.execution.Status
		resumeCh := c.resumeCh
		c.mu.Unlock()

		switch status {
		case model.EXECUTION_STOPPED:
			return false
		case model.EXECUTION_PAUSED:
			select {
			case <-resumeCh:
			case <-c.stopCh:
			}
		default:
			return true
		}
	}
}

// Pause is legal only from running. The pause takes effect at the next
// step boundary; an in-flight step is not preempted.
func (c *ExecutionController) Pause() error {
	c.mu.Lock()
	if c.execution.Status != model.EXECUTION_RUNNING {
		defer c.mu.Unlock()
		return model.InvalidTransitionError{ExecutionId: c.execution.Id, From: c.execution.Status, Op: "pause"}
	}
	now := time.Now()
	c.execution.Status = model.EXECUTION_PAUSED
	c.execution.PausedAt = &now
	c.resumeCh = make(chan struct{})
	c.mu.Unlock()

	c.publish(event.WORKFLOW_PAUSED, "")
	logger.Info("workflow execution paused", zap.String("execution", c.execution.Id))
	return nil
}

// Resume is legal only from paused. Step results and the current step
// index are untouched.
func (c *ExecutionController) Resume() error {
	c.mu.Lock()
	if c.execution.Status != model.EXECUTION_PAUSED {
		defer c.mu.Unlock()
		return model.InvalidTransitionError{ExecutionId: c.execution.Id, From: c.execution.Status, Op: "resume"}
	}
	now := time.Now()
	c.execution.Status = model.EXECUTION_RUNNING
	c.execution.ResumedAt = &now
	close(c.resumeCh)
	c.mu.Unlock()

	c.publish(event.WORKFLOW_RESUMED, "")
	logger.Info("workflow execution resumed", zap.String("execution", c.execution.Id))
	return nil
}

// Stop is legal from running or paused and is terminal. It halts forward
// progress at the next boundary; it does not abort an in-flight action.
func (c *ExecutionController) Stop() error {
	c.mu.Lock()
	status := c.execution.Status
	if status != model.EXECUTION_RUNNING && status != model.EXECUTION_PAUSED {
		defer c.mu.Unlock()
		return model.InvalidTransitionError{ExecutionId: c.execution.Id, From: status, Op: "stop"}
	}
	now := time.Now()
	c.execution.Status = model.EXECUTION_STOPPED
	c.execution.StoppedAt = &now
	close(c.stopCh)
	c.mu.Unlock()

	c.publish(event.WORKFLOW_STOPPED, "")
	logger.Info("workflow execution stopped", zap.String("execution", c.execution.Id))
	return nil
}

func (c *ExecutionController) publish(name event.Name, errMsg string) {
	snapshot := c.Snapshot()
	c.bus.Publish(event.Event{
		Name:        name,
		ExecutionId: snapshot.Id,
		WorkflowId:  snapshot.WorkflowId,
		IncidentId:  snapshot.IncidentId,
		Status:      snapshot.Status,
		Step:        snapshot.CurrentStep,
		Progress:    snapshot.Progress,
		Error:       errMsg,
		At:          time.Now(),
	})
}

// publishFinal emits workflowCompleted with the final status and duration
// regardless of outcome, so no execution is left silently abandoned.
func (c *ExecutionController) publishFinal(final model.Execution) {
	errMsg := ""
	if len(final.Errors) > 0 {
		errMsg = final.Errors[len(final.Errors)-1]
	}
	c.bus.Publish(event.Event{
		Name:        event.WORKFLOW_COMPLETED,
		ExecutionId: final.Id,
		WorkflowId:  final.WorkflowId,
		IncidentId:  final.IncidentId,
		Status:      final.Status,
		Step:        final.CurrentStep,
		Progress:    final.Progress,
		Error:       errMsg,
		DurationMs:  final.Duration().Milliseconds(),
		At:          time.Now(),
	})
}
