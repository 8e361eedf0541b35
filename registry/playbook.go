package registry

import (
	"sync"

	"github.com/arkosec/responder/model"
	"github.com/google/uuid"
)

// PlaybookCatalog stores human-readable response procedures. The engine
// never executes playbooks.
type PlaybookCatalog struct {
	mu        sync.RWMutex
	playbooks map[string]model.Playbook
}

func NewPlaybookCatalog() *PlaybookCatalog {
	return &PlaybookCatalog{playbooks: make(map[string]model.Playbook)}
}

func (c *PlaybookCatalog) Add(pb model.Playbook) model.Playbook {
	if pb.Id == "" {
		pb.Id = uuid.NewString()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playbooks[pb.Id] = pb
	return pb
}

func (c *PlaybookCatalog) List() []model.Playbook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Playbook, 0, len(c.playbooks))
	for _, pb := range c.playbooks {
		out = append(out, pb)
	}
	return out
}
