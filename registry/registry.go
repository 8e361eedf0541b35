package registry

import (
	"math"
	"sync"

	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var supportedTriggers = map[model.TriggerType]bool{
	model.TRIGGER_TYPE_ALERT:              true,
	model.TRIGGER_TYPE_EMAIL_ANALYSIS:     true,
	model.TRIGGER_TYPE_AUTHENTICATION:     true,
	model.TRIGGER_TYPE_VULNERABILITY_SCAN: true,
}

// WorkflowRegistry holds workflow definitions keyed by id. Definitions are
// immutable once registered; edits replace the entry. Run counters are the
// only mutable fields and are updated under the registry lock.
type WorkflowRegistry struct {
	mu        sync.RWMutex
	workflows map[string]*model.Workflow
	// completed/total runs per workflow, backing SuccessRate.
	runs      map[string]int
	successes map[string]int
}

func NewWorkflowRegistry() *WorkflowRegistry {
	return &WorkflowRegistry{
		workflows: make(map[string]*model.Workflow),
		runs:      make(map[string]int),
		successes: make(map[string]int),
	}
}

// Register validates and stores a definition. A missing id is assigned.
// Re-registering an existing id replaces the entry but keeps its counters.
func (r *WorkflowRegistry) Register(wf model.Workflow) (model.Workflow, error) {
	if len(wf.Steps) == 0 {
		return model.Workflow{}, model.InvalidDefinitionError{Reason: "workflow has no steps"}
	}
	if !supportedTriggers[wf.Trigger.Type] {
		return model.Workflow{}, model.InvalidDefinitionError{Reason: "unsupported trigger type " + string(wf.Trigger.Type)}
	}
	for _, step := range wf.Steps {
		if step.Action == "" {
			return model.Workflow{}, model.InvalidDefinitionError{Reason: "step has no action"}
		}
		if step.TimeoutSeconds <= 0 {
			return model.Workflow{}, model.InvalidDefinitionError{Reason: "step timeout must be positive"}
		}
	}
	if wf.Id == "" {
		wf.Id = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := wf
	stored.ExecutionCount = r.runs[wf.Id]
	stored.SuccessRate = successRate(r.successes[wf.Id], r.runs[wf.Id])
	r.workflows[wf.Id] = &stored
	logger.Info("workflow registered", zap.String("workflow", wf.Id), zap.String("name", wf.Name))
	return stored, nil
}

func (r *WorkflowRegistry) Get(id string) (model.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wf, ok := r.workflows[id]
	if !ok {
		return model.Workflow{}, model.WorkflowNotFoundError{WorkflowId: id}
	}
	return *wf, nil
}

func (r *WorkflowRegistry) List() []model.Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Workflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		out = append(out, *wf)
	}
	return out
}

// Enabled returns only workflows eligible for trigger evaluation.
func (r *WorkflowRegistry) Enabled() []model.Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Workflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		if wf.Enabled {
			out = append(out, *wf)
		}
	}
	return out
}

func (r *WorkflowRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[id]
	if !ok {
		return model.WorkflowNotFoundError{WorkflowId: id}
	}
	wf.Enabled = enabled
	return nil
}

func (r *WorkflowRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workflows[id]; !ok {
		return model.WorkflowNotFoundError{WorkflowId: id}
	}
	delete(r.workflows, id)
	delete(r.runs, id)
	delete(r.successes, id)
	return nil
}

// RecordRun updates the workflow's execution counters after a run reaches
// a terminal state.
func (r *WorkflowRegistry) RecordRun(id string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[id]
	if !ok {
		return
	}
	r.runs[id]++
	if success {
		r.successes[id]++
	}
	wf.ExecutionCount = r.runs[id]
	wf.SuccessRate = successRate(r.successes[id], r.runs[id])
}

func successRate(successes, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(successes) / float64(total) * 100))
}
