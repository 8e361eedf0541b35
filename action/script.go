package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// RegisterScript binds a javascript expression as a custom action handler.
// The expression sees `$` holding {incident, params} and whatever it leaves
// in `$` becomes the step details. Scripted actions are not bound to an
// integration.
func (r *Registry) RegisterScript(name string, expression string) error {
	if len(expression) == 0 {
		return fmt.Errorf("action %s: expression can not be empty", name)
	}
	r.Register(name, "", func(ctx context.Context, req Request) (Result, error) {
		return runScript(name, expression, req)
	})
	return nil
}

func runScript(name string, expression string, req Request) (Result, error) {
	input := map[string]any{
		"incident": req.Incident,
		"params":   req.Params,
	}
	data, err := json.Marshal(input)
	if err != nil {
		return Result{}, err
	}
	script := fmt.Sprintf("var $ = %s;\n", data) + expression
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return Result{}, fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return Result{}, fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return Result{}, err
	}
	var output map[string]any
	json.Unmarshal(res, &output)
	return Result{
		Message: fmt.Sprintf("script action %s evaluated", name),
		Details: output,
	}, nil
}
