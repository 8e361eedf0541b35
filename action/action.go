package action

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arkosec/responder/model"
	"github.com/oliveagle/jsonpath"
)

// Request carries everything a handler needs to perform one discrete
// response operation.
type Request struct {
	Action     string
	IncidentId string
	Incident   model.Incident
	Params     map[string]any
}

type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Handler performs one named action. Failure is reported either as a
// returned error or as a result carrying a non-empty Error; both become
// failed step results upstream.
type Handler func(ctx context.Context, req Request) (Result, error)

type registration struct {
	handler       Handler
	integrationId string
}

// Registry is the action dispatch table: action name to handler, with the
// integration catalog consulted before dispatch. Unknown names resolve to
// a failure result rather than an error so the controller can record them
// as normal step results.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]registration
	catalog  *Catalog
}

func NewRegistry(catalog *Catalog) *Registry {
	return &Registry{
		handlers: make(map[string]registration),
		catalog:  catalog,
	}
}

func (r *Registry) Register(name string, integrationId string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = registration{handler: handler, integrationId: integrationId}
}

func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	return out
}

func (r *Registry) Dispatch(ctx context.Context, req Request) Result {
	r.mu.RLock()
	reg, ok := r.handlers[req.Action]
	r.mu.RUnlock()
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
	if reg.integrationId != "" && r.catalog != nil {
		integration, found := r.catalog.Get(reg.integrationId)
		if !found || integration.Status != model.INTEGRATION_CONNECTED {
			return Result{Success: false, Error: fmt.Sprintf("integration %s not available for action %s", reg.integrationId, req.Action)}
		}
	}
	res, err := reg.handler(ctx, req)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	// A handler may flag failure through the result instead of an error.
	if res.Error != "" {
		res.Success = false
		return res
	}
	res.Success = true
	return res
}

// ResolveParams substitutes $-prefixed string values with jsonpath lookups
// against the execution data map (incident fields plus caller params).
// Unresolvable paths yield nil values rather than failing the step.
func ResolveParams(data map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any)
	resolveParams(data, params, output)
	return output
}

func resolveParams(data map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		switch v := v.(type) {
		case map[string]any:
			out := make(map[string]any)
			output[k] = out
			resolveParams(data, v, out)
		case string:
			if strings.HasPrefix(v, "$") {
				value, _ := jsonpath.JsonPathLookup(data, v)
				output[k] = value
			} else {
				output[k] = v
			}
		default:
			output[k] = v
		}
	}
}
