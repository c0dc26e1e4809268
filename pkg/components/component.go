package components

import (
	"encoding/json"
)

// Kind discriminates the widget kinds understood by this build. The
// set is closed: decoding dispatches over it exhaustively and payloads
// with an unlisted kind fall through to Unknown.
type Kind string

const (
	KindNumberInput Kind = "number_input"
	KindSlider      Kind = "slider"
	KindRadio       Kind = "radio"
	KindMultiselect Kind = "multiselect"
	KindTable       Kind = "table"
	KindLineChart   Kind = "line_chart"
	KindBarChart    Kind = "bar_chart"
)

// InputKinds lists the kinds whose value may be patched after creation.
var InputKinds = []Kind{KindNumberInput, KindSlider, KindRadio, KindMultiselect}

// OutputKinds lists the display-only kinds; their payload is immutable.
var OutputKinds = []Kind{KindTable, KindLineChart, KindBarChart}

// Component is one typed widget definition embedded in a transcript
// message. Key identity is scoped to a thread and never reassigned.
type Component interface {
	Kind() Kind
	ID() string
}

// Input is implemented by components that accept a user-supplied
// value. The merge engine works only through this interface, so adding
// a kind never touches the engine.
type Input interface {
	Component
	// ValidateValue checks a proposed value against the component's own
	// declared constraints without mutating the component.
	ValidateValue(value json.RawMessage) error
	// WithValue returns a copy with the value replaced. Callers must
	// validate first; WithValue only fails on undecodable input.
	WithValue(value json.RawMessage) (Input, error)
}

// NumberInput covers the number_input and slider kinds.
type NumberInput struct {
	Type     Kind     `json:"type"`
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Help     string   `json:"help,omitempty"`
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
	Step     *float64 `json:"step,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

func (n NumberInput) Kind() Kind { return n.Type }
func (n NumberInput) ID() string { return n.Key }

func (n NumberInput) ValidateValue(value json.RawMessage) error {
	var v float64
	if err := json.Unmarshal(value, &v); err != nil {
		return ValidationError{Field: "value", Reason: "expected a number"}
	}
	return n.checkRange(v)
}

func (n NumberInput) WithValue(value json.RawMessage) (Input, error) {
	var v float64
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, ValidationError{Field: "value", Reason: "expected a number"}
	}
	n.Value = &v
	return n, nil
}

// Choice covers the radio (single) and multiselect (multi) kinds.
// Value is a JSON string for radio and a JSON array of strings for
// multiselect; multiplicity is fixed by the kind.
type Choice struct {
	Type    Kind            `json:"type"`
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Help    string          `json:"help,omitempty"`
	Options []string        `json:"options"`
	Value   json.RawMessage `json:"value,omitempty"`
}

func (c Choice) Kind() Kind { return c.Type }
func (c Choice) ID() string { return c.Key }

func (c Choice) ValidateValue(value json.RawMessage) error {
	selected, err := c.decodeSelection(value)
	if err != nil {
		return err
	}
	for _, s := range selected {
		if !containsOption(c.Options, s) {
			return ValidationError{Field: "value", Reason: "not in options: " + s}
		}
	}
	return nil
}

func (c Choice) WithValue(value json.RawMessage) (Input, error) {
	if _, err := c.decodeSelection(value); err != nil {
		return nil, err
	}
	c.Value = cloneRaw(value)
	return c, nil
}

// decodeSelection enforces multiplicity: radio takes exactly one
// string, multiselect takes an array of strings.
func (c Choice) decodeSelection(value json.RawMessage) ([]string, error) {
	switch c.Type {
	case KindMultiselect:
		var many []string
		if err := json.Unmarshal(value, &many); err != nil {
			return nil, ValidationError{Field: "value", Reason: "expected a list of options"}
		}
		return many, nil
	default:
		var one string
		if err := json.Unmarshal(value, &one); err != nil {
			return nil, ValidationError{Field: "value", Reason: "expected a single option"}
		}
		return []string{one}, nil
	}
}

// Table is a display-only grid of JSON objects.
type Table struct {
	Type  Kind             `json:"type"`
	Key   string           `json:"key"`
	Label string           `json:"label,omitempty"`
	Help  string           `json:"help,omitempty"`
	Rows  []map[string]any `json:"data"`
}

func (t Table) Kind() Kind { return t.Type }
func (t Table) ID() string { return t.Key }

// Chart covers the line_chart and bar_chart kinds. Data is an opaque
// series payload interpreted by the rendering collaborator.
type Chart struct {
	Type   Kind            `json:"type"`
	Key    string          `json:"key"`
	Label  string          `json:"label,omitempty"`
	Help   string          `json:"help,omitempty"`
	Data   json.RawMessage `json:"data"`
	XLabel string          `json:"x_label,omitempty"`
	YLabel string          `json:"y_label,omitempty"`
}

func (c Chart) Kind() Kind { return c.Type }
func (c Chart) ID() string { return c.Key }

// Unknown preserves a payload whose kind this build does not know.
// Callers can still display "unsupported" instead of crashing, and the
// raw bytes survive re-encoding untouched.
type Unknown struct {
	Type string
	Key  string
	Raw  json.RawMessage
}

func (u Unknown) Kind() Kind { return Kind(u.Type) }
func (u Unknown) ID() string { return u.Key }

func containsOption(opts []string, s string) bool {
	for _, o := range opts {
		if o == s {
			return true
		}
	}
	return false
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
