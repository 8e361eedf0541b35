package cache

import (
	"time"

	"github.com/arkosec/responder/model"
	c "github.com/patrickmn/go-cache"
)

// StateCache remembers the terminal state of finished executions so
// control calls (pause/resume/stop) on them can be answered without
// touching the archive.
type StateCache struct {
	cache *c.Cache
}

func NewStateCache() *StateCache {
	return &StateCache{
		cache: c.New(c.NoExpiration, 10*time.Minute),
	}
}

func (ch *StateCache) SaveState(executionId string, status model.ExecutionStatus) {
	ch.cache.Set(executionId, string(status), c.NoExpiration)
}

func (ch *StateCache) GetState(executionId string) (model.ExecutionStatus, bool) {
	stateStr, found := ch.cache.Get(executionId)
	if found {
		return model.ExecutionStatus(stateStr.(string)), true
	}
	return model.ExecutionStatus(""), false
}
