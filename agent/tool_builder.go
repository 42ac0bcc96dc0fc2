package agent

import (
	"slices"

	"github.com/ollama/ollama/api"
)

// toolBuilder defines a tool schema for native tool calling.
type toolBuilder struct {
	tool api.Tool
}

func newToolBuilder(name, description string) *toolBuilder {
	b := &toolBuilder{
		tool: api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        name,
				Description: description,
			},
		},
	}

	b.tool.Function.Parameters.Type = "object"
	b.tool.Function.Parameters.Properties = make(map[string]api.ToolProperty, 4)
	// Required slice stays nil until first add
	return b
}

func (b *toolBuilder) stringParam(name, desc string, required bool) *toolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"string"},
		Description: desc,
	}

	b.setProp(name, prop, required)
	return b
}

func (b *toolBuilder) stringSliceParam(name, desc string, required bool) *toolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"array"},
		Items:       map[string]any{"type": "string"},
		Description: desc,
	}

	b.setProp(name, prop, required)
	return b
}

func (b *toolBuilder) enumParam(name, desc string, values []string, required bool) *toolBuilder {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	prop := api.ToolProperty{
		Type:        api.PropertyType{"string"},
		Description: desc,
		Enum:        enum,
	}

	b.setProp(name, prop, required)
	return b
}

func (b *toolBuilder) build() api.Tool {
	return b.tool
}

func (b *toolBuilder) setProp(name string, p api.ToolProperty, required bool) {
	props := b.tool.Function.Parameters.Properties
	props[name] = p
	if required {
		req := b.tool.Function.Parameters.Required
		if !slices.Contains(req, name) {
			b.tool.Function.Parameters.Required = append(req, name)
		}
	}
}
