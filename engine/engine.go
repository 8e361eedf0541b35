package engine

import (
	"context"
	"sync"
	"time"

	"github.com/arkosec/responder/action"
	"github.com/arkosec/responder/cache"
	"github.com/arkosec/responder/event"
	"github.com/arkosec/responder/executor"
	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/arkosec/responder/persistence"
	"github.com/arkosec/responder/registry"
	"github.com/arkosec/responder/trigger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the orchestration composition root: it receives incidents,
// matches them against enabled workflows and runs one controller goroutine
// per match. There is deliberately no per-incident mutual exclusion;
// several workflows (or repeated manual runs) may execute concurrently
// against the same incident, each owning its Execution.
type Engine struct {
	registry  *registry.WorkflowRegistry
	playbooks *registry.PlaybookCatalog
	catalog   *action.Catalog
	executor  *executor.StepExecutor
	bus       *event.Bus
	incidents persistence.IncidentStore
	archive   persistence.ExecutionArchive
	states    *cache.StateCache

	mu          sync.RWMutex
	controllers map[string]*ExecutionController

	// slots bounds how many executions run concurrently; waiting for a
	// slot happens inside the execution goroutine, never in the caller.
	slots chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	workflowRegistry *registry.WorkflowRegistry,
	playbooks *registry.PlaybookCatalog,
	catalog *action.Catalog,
	stepExecutor *executor.StepExecutor,
	bus *event.Bus,
	incidents persistence.IncidentStore,
	archive persistence.ExecutionArchive,
	capacity int,
) *Engine {
	if capacity <= 0 {
		capacity = 512
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		registry:    workflowRegistry,
		playbooks:   playbooks,
		catalog:     catalog,
		executor:    stepExecutor,
		bus:         bus,
		incidents:   incidents,
		archive:     archive,
		states:      cache.NewStateCache(),
		controllers: make(map[string]*ExecutionController),
		slots:       make(chan struct{}, capacity),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// HandleIncident stores a new incident and immediately evaluates every
// enabled workflow against it. Every match spawns an independent
// asynchronous execution.
func (e *Engine) HandleIncident(req model.IncidentCreateRequest) (model.Incident, []string, error) {
	incident := model.Incident{
		Id:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Severity:       req.Severity,
		Status:         model.INCIDENT_OPEN,
		CreatedAt:      time.Now(),
		AssignedTo:     req.AssignedTo,
		AffectedAssets: req.AffectedAssets,
	}
	if err := e.incidents.Save(incident); err != nil {
		return model.Incident{}, nil, err
	}
	e.bus.Publish(event.Event{
		Name:       event.INCIDENT_CREATED,
		IncidentId: incident.Id,
		At:         time.Now(),
	})
	logger.Info("incident created",
		zap.String("incident", incident.Id),
		zap.String("type", incident.Type),
		zap.String("severity", string(incident.Severity)))

	var executionIds []string
	for _, wf := range e.registry.Enabled() {
		if !trigger.Matches(wf.Trigger, incident) {
			continue
		}
		executionId := e.startExecution(wf, incident, nil)
		executionIds = append(executionIds, executionId)
		e.bus.Publish(event.Event{
			Name:        event.AUTOMATION_TRIGGERED,
			ExecutionId: executionId,
			WorkflowId:  wf.Id,
			IncidentId:  incident.Id,
			At:          time.Now(),
		})
		logger.Info("automation triggered",
			zap.String("workflow", wf.Id),
			zap.String("incident", incident.Id),
			zap.String("execution", executionId))
	}
	return incident, executionIds, nil
}

// ExecuteWorkflow runs a workflow manually against an existing incident.
// Manual runs do not require the workflow to be enabled.
func (e *Engine) ExecuteWorkflow(workflowId string, incidentId string, params map[string]any) (string, error) {
	wf, err := e.registry.Get(workflowId)
	if err != nil {
		return "", err
	}
	incident, err := e.incidents.Get(incidentId)
	if err != nil {
		return "", err
	}
	return e.startExecution(wf, *incident, params), nil
}

func (e *Engine) startExecution(wf model.Workflow, incident model.Incident, params map[string]any) string {
	ctrl := NewExecutionController(wf, incident, params, e.executor, e.bus, e.finishExecution)
	e.mu.Lock()
	e.controllers[ctrl.ExecutionId()] = ctrl
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.slots <- struct{}{}
		defer func() { <-e.slots }()
		ctrl.Run(e.ctx)
	}()
	return ctrl.ExecutionId()
}

// finishExecution archives a terminal execution, releases its controller
// and folds the outcome back into workflow counters and the incident's
// automated-action list.
func (e *Engine) finishExecution(final model.Execution) {
	if err := e.archive.Save(final); err != nil {
		logger.Error("can not archive execution", zap.String("execution", final.Id), zap.Error(err))
	}
	e.states.SaveState(final.Id, final.Status)
	e.registry.RecordRun(final.WorkflowId, final.Status == model.EXECUTION_COMPLETED)
	for _, res := range final.StepResults {
		if res.Success {
			if err := e.incidents.AppendAutomatedAction(final.IncidentId, res.Action); err != nil {
				logger.Error("can not record automated action", zap.String("incident", final.IncidentId), zap.Error(err))
			}
		}
	}
	e.mu.Lock()
	delete(e.controllers, final.Id)
	e.mu.Unlock()
}

func (e *Engine) controller(executionId string) (*ExecutionController, error) {
	e.mu.RLock()
	ctrl, ok := e.controllers[executionId]
	e.mu.RUnlock()
	if ok {
		return ctrl, nil
	}
	// Finished executions still answer control calls with a structured
	// transition failure instead of not-found.
	if status, found := e.states.GetState(executionId); found {
		return nil, model.InvalidTransitionError{ExecutionId: executionId, From: status, Op: "control"}
	}
	return nil, model.ExecutionNotFoundError{ExecutionId: executionId}
}

func (e *Engine) PauseExecution(executionId string) error {
	ctrl, err := e.controller(executionId)
	if err != nil {
		if inv, ok := err.(model.InvalidTransitionError); ok {
			inv.Op = "pause"
			return inv
		}
		return err
	}
	return ctrl.Pause()
}

func (e *Engine) ResumeExecution(executionId string) error {
	ctrl, err := e.controller(executionId)
	if err != nil {
		if inv, ok := err.(model.InvalidTransitionError); ok {
			inv.Op = "resume"
			return inv
		}
		return err
	}
	return ctrl.Resume()
}

func (e *Engine) StopExecution(executionId string) error {
	ctrl, err := e.controller(executionId)
	if err != nil {
		if inv, ok := err.(model.InvalidTransitionError); ok {
			inv.Op = "stop"
			return inv
		}
		return err
	}
	return ctrl.Stop()
}

func (e *Engine) GetExecution(executionId string) (model.Execution, error) {
	e.mu.RLock()
	ctrl, ok := e.controllers[executionId]
	e.mu.RUnlock()
	if ok {
		return ctrl.Snapshot(), nil
	}
	exec, err := e.archive.Get(executionId)
	if err != nil {
		return model.Execution{}, err
	}
	return *exec, nil
}

// ActiveExecutions returns snapshots of executions that are still running
// or paused.
func (e *Engine) ActiveExecutions() []model.Execution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]model.Execution, 0, len(e.controllers))
	for _, ctrl := range e.controllers {
		snapshot := ctrl.Snapshot()
		if !snapshot.Status.Terminal() {
			out = append(out, snapshot)
		}
	}
	return out
}

// Executions returns the full execution history: archived terminal runs
// plus live snapshots.
func (e *Engine) Executions() []model.Execution {
	archived, err := e.archive.List()
	if err != nil {
		logger.Error("can not list archived executions", zap.Error(err))
	}
	return append(archived, e.ActiveExecutions()...)
}

func (e *Engine) Workflows() []model.Workflow {
	return e.registry.List()
}

func (e *Engine) Playbooks() []model.Playbook {
	return e.playbooks.List()
}

func (e *Engine) Integrations() []model.Integration {
	return e.catalog.List()
}

func (e *Engine) Incidents() ([]model.Incident, error) {
	return e.incidents.List()
}

func (e *Engine) GetIncident(id string) (model.Incident, error) {
	inc, err := e.incidents.Get(id)
	if err != nil {
		return model.Incident{}, err
	}
	return *inc, nil
}

func (e *Engine) Registry() *registry.WorkflowRegistry {
	return e.registry
}

// Shutdown stops live executions at their next step boundary and waits for
// every controller goroutine to finish.
func (e *Engine) Shutdown() error {
	e.mu.RLock()
	ctrls := make([]*ExecutionController, 0, len(e.controllers))
	for _, ctrl := range e.controllers {
		ctrls = append(ctrls, ctrl)
	}
	e.mu.RUnlock()
	for _, ctrl := range ctrls {
		_ = ctrl.Stop()
	}
	e.wg.Wait()
	e.cancel()
	return nil
}
