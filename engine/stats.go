package engine

import (
	"math"
	"time"

	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"go.uber.org/zap"
)

// minutesSavedPerRun is the policy estimate of analyst time one completed
// automated response replaces. It is a heuristic, not a measured fact.
const minutesSavedPerRun = 25

type AutomationStatistics struct {
	TotalExecutions int `json:"totalExecutions"`
	Completed       int `json:"completed"`
	Failed          int `json:"failed"`
	Stopped         int `json:"stopped"`
	Running         int `json:"running"`
	Paused          int `json:"paused"`
	// SuccessRate is round(completed/total*100) over all executions.
	SuccessRate int `json:"successRate"`
	// AvgExecutionMs is the mean wall-clock duration of completed runs.
	AvgExecutionMs int64 `json:"avgExecutionMs"`
	// TimeSavedMinutes and AutomationRate are policy-level estimates
	// derived from aggregate counts.
	TimeSavedMinutes int `json:"timeSavedMinutes"`
	AutomationRate   int `json:"automationRate"`
}

// Statistics is derived on demand from the full execution history; nothing
// here is stored.
func (e *Engine) Statistics() AutomationStatistics {
	stats := AutomationStatistics{}
	var completedDuration time.Duration

	for _, exec := range e.Executions() {
		stats.TotalExecutions++
		switch exec.Status {
		case model.EXECUTION_COMPLETED:
			stats.Completed++
			completedDuration += exec.Duration()
		case model.EXECUTION_FAILED:
			stats.Failed++
		case model.EXECUTION_STOPPED:
			stats.Stopped++
		case model.EXECUTION_RUNNING:
			stats.Running++
		case model.EXECUTION_PAUSED:
			stats.Paused++
		}
	}
	if stats.TotalExecutions > 0 {
		stats.SuccessRate = int(math.Round(float64(stats.Completed) / float64(stats.TotalExecutions) * 100))
	}
	if stats.Completed > 0 {
		stats.AvgExecutionMs = (completedDuration / time.Duration(stats.Completed)).Milliseconds()
	}
	stats.TimeSavedMinutes = stats.Completed * minutesSavedPerRun

	incidents, err := e.incidents.List()
	if err != nil {
		logger.Error("can not list incidents for statistics", zap.Error(err))
		return stats
	}
	automated := 0
	for _, inc := range incidents {
		if len(inc.AutomatedActions) > 0 {
			automated++
		}
	}
	if len(incidents) > 0 {
		stats.AutomationRate = int(math.Round(float64(automated) / float64(len(incidents)) * 100))
	}
	return stats
}
