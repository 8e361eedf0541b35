package memory

import (
	"sync"
	"time"

	"github.com/arkosec/responder/model"
	"github.com/arkosec/responder/persistence"
	c "github.com/patrickmn/go-cache"
)

var _ persistence.ExecutionArchive = new(ExecutionArchive)
var _ persistence.IncidentStore = new(IncidentStore)

// ExecutionArchive keeps terminal executions in process memory. A non-zero
// TTL bounds retention; the default keeps everything.
type ExecutionArchive struct {
	cache *c.Cache
	ttl   time.Duration
}

func NewExecutionArchive(ttl time.Duration) *ExecutionArchive {
	expiration := c.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	return &ExecutionArchive{
		cache: c.New(expiration, 10*time.Minute),
		ttl:   ttl,
	}
}

func (a *ExecutionArchive) Save(exec model.Execution) error {
	a.cache.Set(exec.Id, exec, c.DefaultExpiration)
	return nil
}

func (a *ExecutionArchive) Get(id string) (*model.Execution, error) {
	v, found := a.cache.Get(id)
	if !found {
		return nil, model.ExecutionNotFoundError{ExecutionId: id}
	}
	exec := v.(model.Execution)
	return &exec, nil
}

func (a *ExecutionArchive) List() ([]model.Execution, error) {
	items := a.cache.Items()
	out := make([]model.Execution, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(model.Execution))
	}
	return out, nil
}

type IncidentStore struct {
	mu        sync.RWMutex
	incidents map[string]model.Incident
}

func NewIncidentStore() *IncidentStore {
	return &IncidentStore{incidents: make(map[string]model.Incident)}
}

func (s *IncidentStore) Save(inc model.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents[inc.Id] = inc
	return nil
}

func (s *IncidentStore) Get(id string) (*model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[id]
	if !ok {
		return nil, model.IncidentNotFoundError{IncidentId: id}
	}
	return &inc, nil
}

func (s *IncidentStore) List() ([]model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		out = append(out, inc)
	}
	return out, nil
}

func (s *IncidentStore) UpdateStatus(id string, status model.IncidentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.incidents[id]
	if !ok {
		return model.IncidentNotFoundError{IncidentId: id}
	}
	inc.Status = status
	s.incidents[id] = inc
	return nil
}

func (s *IncidentStore) AppendAutomatedAction(id string, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.incidents[id]
	if !ok {
		return model.IncidentNotFoundError{IncidentId: id}
	}
	inc.AutomatedActions = append(inc.AutomatedActions, action)
	s.incidents[id] = inc
	return nil
}

func (s *IncidentStore) Archive(id string) error {
	return s.UpdateStatus(id, model.INCIDENT_ARCHIVED)
}
