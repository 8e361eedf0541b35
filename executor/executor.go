package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arkosec/responder/action"
	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"go.uber.org/zap"
)

// StepExecutor invokes one named action with the step's timeout and turns
// every outcome (success, handler error, timeout, panic) into a structured
// step result. It never returns an error; failures are data.
type StepExecutor struct {
	registry *action.Registry
}

func NewStepExecutor(registry *action.Registry) *StepExecutor {
	return &StepExecutor{registry: registry}
}

func (ex *StepExecutor) Execute(ctx context.Context, step model.Step, incident model.Incident, params map[string]any) model.StepResult {
	started := time.Now()
	result := model.StepResult{
		StepId:    step.Id,
		Name:      step.Name,
		Action:    step.Action,
		StartedAt: started,
	}

	req := action.Request{
		Action:     step.Action,
		IncidentId: incident.Id,
		Incident:   incident,
		Params:     ex.resolveParams(step, incident, params),
	}

	timeout := time.Duration(step.TimeoutSeconds) * time.Second
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan action.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("action handler panicked", zap.String("action", step.Action), zap.Any("panic", r))
				done <- action.Result{Success: false, Error: fmt.Sprintf("handler fault: %v", r)}
			}
		}()
		done <- ex.registry.Dispatch(callCtx, req)
	}()

	select {
	case res := <-done:
		result.Success = res.Success
		result.Message = res.Message
		result.Details = res.Details
		result.Error = res.Error
	case <-callCtx.Done():
		// The in-flight call is not preempted; its result is discarded.
		result.Success = false
		result.Error = "timeout"
	}
	result.FinishedAt = time.Now()
	return result
}

// resolveParams builds the data map visible to $-references (incident
// fields and caller params), resolves the step's own params against it and
// overlays them on the caller params.
func (ex *StepExecutor) resolveParams(step model.Step, incident model.Incident, params map[string]any) map[string]any {
	data := map[string]any{
		"incident": toMap(incident),
		"params":   params,
	}
	merged := make(map[string]any, len(params)+len(step.Params))
	for k, v := range params {
		merged[k] = v
	}
	for k, v := range action.ResolveParams(data, step.Params) {
		merged[k] = v
	}
	return merged
}

func toMap(incident model.Incident) map[string]any {
	raw, err := json.Marshal(incident)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
