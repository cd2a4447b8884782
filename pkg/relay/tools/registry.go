// Package tools implements the dispatch table for model-initiated function
// calls. Each executor validates its arguments and calls one external
// capability; results come back as plain text for the conversation.
package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
)

// Executor is one named function the upstream model can invoke.
type Executor interface {
	Name() string
	Definition() protocol.ToolSchema
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Registry dispatches function calls by name.
type Registry struct {
	byName map[string]Executor
}

// NewRegistry builds a registry from the given executors; nil entries are
// skipped.
func NewRegistry(executors ...Executor) *Registry {
	registry := &Registry{byName: make(map[string]Executor, len(executors))}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		registry.byName[ex.Name()] = ex
	}
	return registry
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[strings.TrimSpace(name)]
	return ok
}

// Names lists registered tool names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the tool schemas advertised in the session
// configuration, ordered by name.
func (r *Registry) Definitions() []protocol.ToolSchema {
	if r == nil {
		return nil
	}
	defs := make([]protocol.ToolSchema, 0, len(r.byName))
	for _, name := range r.Names() {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// Execute dispatches one function call. Unknown names fail with a not-found
// error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	if r == nil {
		return "", relay.NewNotFoundError("tool registry is not configured")
	}
	ex, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return "", relay.NewNotFoundError("unsupported tool " + name)
	}
	return ex.Execute(ctx, args)
}

// stringArg extracts a required non-empty string argument.
func stringArg(args map[string]any, key string) (string, error) {
	value, _ := args[key].(string)
	value = strings.TrimSpace(value)
	if value == "" {
		return "", relay.NewInvalidArgumentError(key+" is required", key)
	}
	return value, nil
}

// numberArg extracts a required numeric argument. JSON numbers decode as
// float64; integer strings from loosely-typed models are not accepted.
func numberArg(args map[string]any, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, relay.NewInvalidArgumentError(key+" is required", key)
	}
}

// intArg extracts a required whole-number argument.
func intArg(args map[string]any, key string) (int, error) {
	f, err := numberArg(args, key)
	if err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, relay.NewInvalidArgumentError(key+" must be a whole number", key)
	}
	return n, nil
}
