package action

import (
	"sync"
	"time"

	"github.com/arkosec/responder/model"
)

// Catalog holds integration descriptors. Descriptors are read-only for the
// engine; only connectivity metadata changes after seeding.
type Catalog struct {
	mu           sync.RWMutex
	integrations map[string]model.Integration
}

func NewCatalog() *Catalog {
	return &Catalog{integrations: make(map[string]model.Integration)}
}

func (c *Catalog) Add(in model.Integration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.integrations[in.Id] = in
}

func (c *Catalog) Get(id string) (model.Integration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.integrations[id]
	return in, ok
}

func (c *Catalog) List() []model.Integration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Integration, 0, len(c.integrations))
	for _, in := range c.integrations {
		out = append(out, in)
	}
	return out
}

// SetStatus records the outcome of a connectivity check.
func (c *Catalog) SetStatus(id string, status model.IntegrationStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	in, ok := c.integrations[id]
	if !ok {
		return
	}
	in.Status = status
	in.LastSyncAt = time.Now()
	c.integrations[id] = in
}
