package models

import (
	"bytes"
	"encoding/json"
)

// Role identifies who produced a message. Component messages are a
// distinct role from plain agent text: their body holds exactly one
// encoded UI component.
type Role string

const (
	RoleUser      Role = "user"
	RoleAgent     Role = "agent"
	RoleComponent Role = "component"
)

type Message struct {
	ID     string `json:"id"`
	Thread string `json:"thread"`
	Role   Role   `json:"role"`
	TS     int64  `json:"ts"`
	// Ordinal is the position in the thread's append-only sequence.
	// Assigned by the store, strictly increasing, never reused.
	Ordinal uint64 `json:"ordinal"`
	// Body is free text (JSON string) for user/agent messages, or an
	// encoded component object for component-role messages.
	Body json.RawMessage `json:"body,omitempty"`
}

// BodyEqual reports whether two messages carry the same body bytes,
// ignoring insignificant whitespace differences.
func (m Message) BodyEqual(o Message) bool {
	var a, b bytes.Buffer
	if err := json.Compact(&a, m.Body); err != nil {
		return bytes.Equal(m.Body, o.Body)
	}
	if err := json.Compact(&b, o.Body); err != nil {
		return false
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// TextBody wraps plain text as a message body.
func TextBody(text string) json.RawMessage {
	b, _ := json.Marshal(text)
	return b
}
