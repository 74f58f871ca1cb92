package tool

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/model"
)

// Binding pairs a tool with its idempotency class. Read-only tools may be
// re-executed freely inside a tool-call loop; mutating tools are deduplicated
// by call signature.
type Binding struct {
	Tool     Tool
	Mutating bool
}

// Registry is a capability table: an explicit name-keyed mapping from tool
// name to a typed binding, constructed once per agent role. Registration
// order is preserved for deterministic tool definition lists.
type Registry struct {
	bindings map[string]Binding
	order    []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: map[string]Binding{}}
}

// RegisterReadOnly adds a tool that is safe to re-run with identical arguments.
func (r *Registry) RegisterReadOnly(t Tool) *Registry { return r.register(t, false) }

// RegisterMutating adds a tool whose repeat execution with an identical
// signature must be skipped within one request.
func (r *Registry) RegisterMutating(t Tool) *Registry { return r.register(t, true) }

func (r *Registry) register(t Tool, mutating bool) *Registry {
	name := t.Name()
	if _, exists := r.bindings[name]; !exists {
		r.order = append(r.order, name)
	}
	r.bindings[name] = Binding{Tool: t, Mutating: mutating}
	return r
}

// Lookup returns the binding for a tool name.
func (r *Registry) Lookup(name string) (Binding, bool) {
	b, ok := r.bindings[name]
	return b, ok
}

// IsMutating reports the idempotency class of a registered tool. Unknown
// names report false.
func (r *Registry) IsMutating(name string) bool {
	b, ok := r.bindings[name]
	return ok && b.Mutating
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions exposes the registered tools as model tool definitions.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.bindings[name].Tool
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute resolves a tool by name and invokes it. An unknown name produces a
// *ToolError so the caller can feed the failure back into the model context.
func (r *Registry) Execute(toolCtx *core.ToolContext, name string, args map[string]any) (any, error) {
	b, ok := r.bindings[name]
	if !ok {
		return nil, NewToolError(name, "unknown tool", "UNKNOWN_TOOL")
	}
	return b.Tool.Call(toolCtx, args)
}

// Signature returns a canonical (name, arguments) key for deduplication.
// Map keys are serialized in sorted order so logically identical argument
// sets collapse to one signature.
func Signature(name string, args map[string]any) string {
	if len(args) == 0 {
		return name + "()"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	canonical := make(map[string]any, len(args))
	for _, k := range keys {
		canonical[k] = args[k]
	}
	// encoding/json emits map keys in sorted order
	raw, err := json.Marshal(canonical)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", args))
	}
	return name + "(" + string(raw) + ")"
}
