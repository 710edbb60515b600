package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Aggregator is the contract a Manager consumes from an MCP tool source
// (spec §4.6). Implementations own their own transport; the Manager only
// calls list/invoke.
type Aggregator interface {
	// ListTools returns the aggregator's tools, already prefixed
	// "<server>__<tool>".
	ListTools(ctx context.Context) ([]Schema, error)

	// Call invokes a prefixed tool name with JSON arguments.
	Call(ctx context.Context, prefixedName string, args json.RawMessage) (*Result, error)
}

// Manager composes the final tool set for a process: built-ins and
// function-derived tools live directly in the Registry; MCP aggregators are
// consulted lazily so their tool lists can change between calls. Aliases let
// a program expose a tool under a different name than its canonical one.
type Manager struct {
	registry    *Registry
	aggregators []Aggregator
	aliases     map[string]string // alias -> canonical name
}

// NewManager returns an empty Manager backed by a fresh Registry.
func NewManager() *Manager {
	return &Manager{registry: NewRegistry(), aliases: make(map[string]string)}
}

// Registry returns the manager's backing registry, for built-in/
// function-derived registration.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// AddAggregator attaches an MCP aggregator as an additional tool source.
func (m *Manager) AddAggregator(a Aggregator) {
	m.aggregators = append(m.aggregators, a)
}

// Alias exposes canonical under the given alias name. Dispatch and schema
// listing both resolve the alias transparently.
func (m *Manager) Alias(alias, canonical string) {
	m.aliases[alias] = canonical
}

// ResolveName maps an alias to its canonical registry name, or returns name
// unchanged if it is not an alias.
func (m *Manager) ResolveName(name string) string {
	if canonical, ok := m.aliases[name]; ok {
		return canonical
	}
	return name
}

// Schemas returns the combined, alias-resolved schema list: registry tools
// first, then each aggregator's tools. An aggregator error is folded into a
// single synthetic schema-less entry is not done; callers that need
// best-effort behavior should wrap a flaky Aggregator.
func (m *Manager) Schemas(ctx context.Context) ([]Schema, error) {
	schemas := m.registry.ListSchemas()
	for _, agg := range m.aggregators {
		more, err := agg.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool: listing mcp tools: %w", err)
		}
		schemas = append(schemas, more...)
	}
	return m.applyAliasNames(schemas), nil
}

// applyAliasNames rewrites schema names so a canonical tool registered under
// one name is advertised under its alias, if any. Built by inverting the
// alias map (canonical -> alias); a canonical name with multiple aliases
// keeps only its first-registered alias, matching last-registration-wins
// semantics elsewhere in the package.
func (m *Manager) applyAliasNames(schemas []Schema) []Schema {
	if len(m.aliases) == 0 {
		return schemas
	}
	inverse := make(map[string]string, len(m.aliases))
	for alias, canonical := range m.aliases {
		inverse[canonical] = alias
	}
	out := make([]Schema, len(schemas))
	for i, s := range schemas {
		if alias, ok := inverse[s.Name]; ok {
			s.Name = alias
		}
		out[i] = s
	}
	return out
}

// Call resolves name (alias or canonical) and dispatches to the registry, or
// to whichever aggregator advertises it. Unknown names are recovered into an
// error Result, never a Go error, matching Registry.Call's contract.
func (m *Manager) Call(ctx context.Context, name string, params json.RawMessage) *Result {
	canonical := m.ResolveName(name)

	if _, ok := m.registry.Get(canonical); ok {
		return m.registry.Call(ctx, canonical, params)
	}

	for _, agg := range m.aggregators {
		schemas, err := agg.ListTools(ctx)
		if err != nil {
			continue
		}
		for _, s := range schemas {
			if s.Name == canonical {
				res, err := agg.Call(ctx, canonical, params)
				if err != nil {
					return ErrorResult("mcp tool %q failed: %v", canonical, err)
				}
				return res
			}
		}
	}

	return ErrorResult("Tool '%s' not found. Available: %s", name, joinNames(m, ctx))
}

func joinNames(m *Manager, ctx context.Context) string {
	schemas, err := m.Schemas(ctx)
	if err != nil {
		return "(unavailable)"
	}
	names := make([]string, len(schemas))
	for i, s := range schemas {
		names[i] = s.Name
	}
	return fmt.Sprint(names)
}
