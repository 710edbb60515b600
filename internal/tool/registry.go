package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Parameter limits, prevents resource exhaustion from a misbehaving or
// adversarial model response.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 10 << 20 // 10MB
)

// Registry is a thread-safe name -> Tool mapping. Lookups and calls never
// panic: an unknown name or a handler error are both recovered into an error
// Result so the conversation can continue (spec §4.2).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// ListNames returns all registered tool names, sorted.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Schema describes one tool's call surface to the model.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ListSchemas returns the {name, description, input_schema} triple for every
// registered tool, in stable name order.
func (r *Registry) ListSchemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.tools))
	for _, name := range r.sortedNamesLocked() {
		t := r.tools[name]
		out = append(out, Schema{Name: t.Name(), Description: t.Description(), InputSchema: t.Schema()})
	}
	return out
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call dispatches name with the given JSON arguments. It never returns a
// non-nil error: every failure mode (oversized name/params, unknown tool,
// handler panic or error) is converted to an error Result so the model can
// self-correct on the next turn.
func (r *Registry) Call(ctx context.Context, name string, params json.RawMessage) (result *Result) {
	if len(name) > MaxToolNameLength {
		return ErrorResult("tool name exceeds maximum length of %d characters", MaxToolNameLength)
	}
	if len(params) > MaxToolParamsSize {
		return ErrorResult("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize)
	}

	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return ErrorResult("Tool '%s' not found. Available: %s", name, strings.Join(r.ListNames(), ", "))
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = ErrorResult("tool %q panicked: %v", name, rec)
		}
	}()

	if err := validateParams(t, params); err != nil {
		return ErrorResult("tool %q: %v", name, err)
	}

	res, err := t.Execute(ctx, params)
	if err != nil {
		return ErrorResult("tool %q failed: %v", name, err)
	}
	if res == nil {
		return ErrorResult("tool %q returned no result", name)
	}
	return res
}

// schemaCache holds compiled schemas keyed by their raw JSON text, so a tool
// registered once (and called many times) only pays the compile cost once.
var schemaCache sync.Map

// validateParams checks params against t's registered schema before
// dispatch (spec §9 "validated coercion"). A tool with no schema, or one
// whose schema fails to compile, is not validated: Schema() is advisory
// metadata surfaced to the model, and a malformed schema shouldn't block
// every call to the tool that declared it.
func validateParams(t Tool, params json.RawMessage) error {
	schema := t.Schema()
	if len(schema) == 0 {
		return nil
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return nil
	}

	var decoded any = map[string]any{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &decoded); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("arguments do not match schema: %w", err)
	}
	return nil
}

func compileSchema(schema json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schema)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compiled, err := jsonschema.CompileString("tool.schema.json", key)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

// AssertSchemaNonNil returns a placeholder {} schema when schema is empty,
// since some providers reject a missing input_schema.
func AssertSchemaNonNil(schema json.RawMessage) json.RawMessage {
	if len(schema) == 0 {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return schema
}
