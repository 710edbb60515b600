// Package funcschema builds function-derived tools (spec §4.3.1): a plain Go
// function plus a typed parameter struct becomes a tool.Tool, with its JSON
// schema generated by reflection over the parameter struct instead of
// hand-written by the caller.
package funcschema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/llmproc/llmproc-go/internal/tool"
)

// Handler is a typed function-derived tool implementation. P must be a
// struct; its json-tagged fields become the tool's input schema.
type Handler[P any] func(ctx context.Context, params P) (string, error)

// funcTool adapts a Handler[P] to tool.Tool.
type funcTool[P any] struct {
	name        string
	description string
	schema      json.RawMessage
	fn          Handler[P]
}

// FromFunc reflects over P to build the tool's input schema, then returns a
// tool.Tool that unmarshals incoming JSON arguments into P and calls fn.
// paramDescriptions overrides the reflected description for the named
// json-tag field (reflection alone only sees Go doc comments if the struct
// ships with them, which most call sites won't); explicit descriptions here
// take precedence, matching the spec's override rule.
func FromFunc[P any](name, description string, paramDescriptions map[string]string, fn Handler[P]) (tool.Tool, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:               "json",
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
	}
	var zero P
	s := r.Reflect(&zero)

	if s.Properties != nil {
		for field, desc := range paramDescriptions {
			if prop, ok := s.Properties.Get(field); ok {
				if schemaProp, ok := prop.(*jsonschema.Schema); ok {
					schemaProp.Description = desc
				}
			}
		}
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("funcschema: reflecting schema for %q: %w", name, err)
	}

	return &funcTool[P]{name: name, description: description, schema: raw, fn: fn}, nil
}

func (t *funcTool[P]) Name() string            { return t.name }
func (t *funcTool[P]) Description() string     { return t.description }
func (t *funcTool[P]) Schema() json.RawMessage { return t.schema }

func (t *funcTool[P]) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var p P
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return tool.ErrorResult("invalid arguments for %q: %v", t.name, err), nil
		}
	}
	out, err := t.fn(ctx, p)
	if err != nil {
		return tool.ErrorResult("%v", err), nil
	}
	return &tool.Result{Content: out}, nil
}
