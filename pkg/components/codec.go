package components

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeError reports a malformed component payload. Payloads with an
// unlisted kind are not an error: they decode to Unknown so newer
// component kinds degrade gracefully instead of crashing the caller.
type DecodeError struct {
	Reason string
}

func (e DecodeError) Error() string {
	return "component decode failed: " + e.Reason
}

// Encode serializes a component to the opaque message payload form.
// Unknown components re-emit their original bytes verbatim so a
// store-and-forward path never corrupts payloads it cannot parse.
func Encode(c Component) (json.RawMessage, error) {
	if u, ok := c.(Unknown); ok {
		return cloneRaw(u.Raw), nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s component: %w", c.Kind(), err)
	}
	return b, nil
}

// Decode parses a message payload into a typed component. Dispatch is
// an exhaustive switch over the closed kind set; anything else becomes
// Unknown. Malformed payloads of a known kind fail with DecodeError.
func Decode(raw json.RawMessage) (Component, error) {
	var probe struct {
		Type string `json:"type"`
		Key  string `json:"key"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, DecodeError{Reason: "payload is not a JSON object"}
	}
	if probe.Type == "" {
		return nil, DecodeError{Reason: "missing type discriminator"}
	}

	switch Kind(probe.Type) {
	case KindNumberInput, KindSlider:
		var n NumberInput
		if err := decodeInto(raw, &n); err != nil {
			return nil, DecodeError{Reason: fmt.Sprintf("bad %s payload: %v", probe.Type, err)}
		}
		return n, nil
	case KindRadio, KindMultiselect:
		var c Choice
		if err := decodeInto(raw, &c); err != nil {
			return nil, DecodeError{Reason: fmt.Sprintf("bad %s payload: %v", probe.Type, err)}
		}
		return c, nil
	case KindTable:
		var t Table
		if err := decodeInto(raw, &t); err != nil {
			return nil, DecodeError{Reason: fmt.Sprintf("bad %s payload: %v", probe.Type, err)}
		}
		return t, nil
	case KindLineChart, KindBarChart:
		var c Chart
		if err := decodeInto(raw, &c); err != nil {
			return nil, DecodeError{Reason: fmt.Sprintf("bad %s payload: %v", probe.Type, err)}
		}
		return c, nil
	default:
		return Unknown{Type: probe.Type, Key: probe.Key, Raw: cloneRaw(raw)}, nil
	}
}

// IsComponentPayload reports whether raw looks like an encoded
// component (a JSON object with a type discriminator).
func IsComponentPayload(raw json.RawMessage) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Type != ""
}

func decodeInto(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	return dec.Decode(v)
}
