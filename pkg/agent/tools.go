// Package agent exposes the component schema to tool-calling agent
// loops. The tool surface is generated from the schema: one callable
// per kind, and each tool is an identity function from the agent's
// point of view - it receives a proposed component and returns it
// unchanged once validated.
package agent

import (
	"encoding/json"
	"fmt"

	"componentdb/pkg/components"
	"componentdb/pkg/models"
	"componentdb/pkg/utils"
)

// Tool describes one invocable component constructor.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Kind        components.Kind `json:"kind"`
	InputSchema map[string]any  `json:"input_schema"`
}

// Prompt is the predefined instruction handed to agent loops alongside
// the tool surface.
const Prompt = "Use the component tools to generate UI components for the frontend application. After a tool call, keep the next text response short and concise."

var toolDescriptions = map[components.Kind]string{
	components.KindNumberInput: "Generate a number input component.",
	components.KindSlider:      "Generate a slider component.",
	components.KindRadio:       "Generate a single-choice radio component.",
	components.KindMultiselect: "Generate a multi-choice select component.",
	components.KindTable:       "Generate a table output component. The data field is a list of JSON objects.",
	components.KindLineChart:   "Generate a line chart output component.",
	components.KindBarChart:    "Generate a bar chart output component.",
}

// Tools returns the full tool surface, one entry per component kind.
func Tools() []Tool {
	kinds := append(append([]components.Kind{}, components.InputKinds...), components.OutputKinds...)
	out := make([]Tool, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Tool{
			Name:        string(k),
			Description: toolDescriptions[k],
			Kind:        k,
			InputSchema: inputSchema(k),
		})
	}
	return out
}

// Invoke validates a proposed component payload for the named tool and
// returns the component-role message recording it. The payload comes
// back unchanged apart from a generated key when the agent omitted one.
func Invoke(name string, payload json.RawMessage) (models.Message, error) {
	kind := components.Kind(name)
	if _, ok := toolDescriptions[kind]; !ok {
		return models.Message{}, fmt.Errorf("unknown tool: %s", name)
	}
	comp, err := components.Decode(payload)
	if err != nil {
		return models.Message{}, err
	}
	if comp.Kind() != kind {
		return models.Message{}, components.ValidationError{Field: "type", Reason: fmt.Sprintf("tool %s invoked with type %s", name, comp.Kind())}
	}
	comp = ensureKey(comp)
	if err := components.Validate(comp); err != nil {
		return models.Message{}, err
	}
	body, err := components.Encode(comp)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:   utils.GenMessageID(),
		Role: models.RoleComponent,
		Body: body,
	}, nil
}

func ensureKey(c components.Component) components.Component {
	if c.ID() != "" {
		return c
	}
	switch v := c.(type) {
	case components.NumberInput:
		v.Key = utils.GenComponentKey()
		return v
	case components.Choice:
		v.Key = utils.GenComponentKey()
		return v
	case components.Table:
		v.Key = utils.GenComponentKey()
		return v
	case components.Chart:
		v.Key = utils.GenComponentKey()
		return v
	default:
		return c
	}
}

// inputSchema builds a JSON-schema-shaped description of a kind's
// parameters. Tool input and output schemas are identical.
func inputSchema(kind components.Kind) map[string]any {
	props := map[string]any{
		"type": map[string]any{"type": "string", "const": string(kind)},
		"key":  map[string]any{"type": "string"},
	}
	required := []string{"type"}
	switch kind {
	case components.KindNumberInput, components.KindSlider:
		props["label"] = map[string]any{"type": "string"}
		props["help"] = map[string]any{"type": "string"}
		props["min_value"] = map[string]any{"type": "number"}
		props["max_value"] = map[string]any{"type": "number"}
		props["step"] = map[string]any{"type": "number"}
		props["value"] = map[string]any{"type": "number"}
		required = append(required, "label")
	case components.KindRadio, components.KindMultiselect:
		props["label"] = map[string]any{"type": "string"}
		props["help"] = map[string]any{"type": "string"}
		props["options"] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
		if kind == components.KindMultiselect {
			props["value"] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
		} else {
			props["value"] = map[string]any{"type": "string"}
		}
		required = append(required, "label", "options")
	case components.KindTable:
		props["label"] = map[string]any{"type": "string"}
		props["data"] = map[string]any{"type": "array", "items": map[string]any{"type": "object"}}
		required = append(required, "data")
	case components.KindLineChart, components.KindBarChart:
		props["label"] = map[string]any{"type": "string"}
		props["data"] = map[string]any{}
		props["x_label"] = map[string]any{"type": "string"}
		props["y_label"] = map[string]any{"type": "string"}
		required = append(required, "data")
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
