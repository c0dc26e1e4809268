package components

import (
	"encoding/json"
	"reflect"
	"testing"
)

func f(v float64) *float64 { return &v }

func sampleComponents() []Component {
	return []Component{
		NumberInput{Type: KindNumberInput, Key: "k1", Label: "Age", MinValue: f(0), MaxValue: f(120), Step: f(1), Value: f(30)},
		NumberInput{Type: KindSlider, Key: "k2", Label: "Volume", MinValue: f(0), MaxValue: f(11)},
		Choice{Type: KindRadio, Key: "k3", Label: "Color", Options: []string{"red", "green", "blue"}, Value: json.RawMessage(`"green"`)},
		Choice{Type: KindMultiselect, Key: "k4", Label: "Toppings", Options: []string{"ham", "cheese"}, Value: json.RawMessage(`["ham","cheese"]`)},
		Table{Type: KindTable, Key: "k5", Label: "Results", Rows: []map[string]any{{"name": "a", "score": float64(1)}}},
		Chart{Type: KindLineChart, Key: "k6", Data: json.RawMessage(`[1,2,3]`), XLabel: "t", YLabel: "v"},
		Chart{Type: KindBarChart, Key: "k7", Data: json.RawMessage(`{"a":1}`)},
	}
}

// TestRoundTrip verifies decode(encode(c)) == c for every kind.
func TestRoundTrip(t *testing.T) {
	for _, c := range sampleComponents() {
		raw, err := Encode(c)
		if err != nil {
			t.Fatalf("Encode(%s): %v", c.Kind(), err)
		}
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%s): %v", c.Kind(), err)
		}
		if !reflect.DeepEqual(got, c) {
			t.Fatalf("round trip mismatch for %s:\n got %#v\nwant %#v", c.Kind(), got, c)
		}
	}
}

// TestDecodeUnknownKind verifies forward compatibility: an unlisted
// kind decodes to Unknown without error and re-encodes verbatim.
func TestDecodeUnknownKind(t *testing.T) {
	raw := json.RawMessage(`{"type":"future_widget_xyz","key":"fw1","payload":{"x":1}}`)
	c, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode unknown kind: %v", err)
	}
	u, ok := c.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", c)
	}
	if u.Type != "future_widget_xyz" || u.ID() != "fw1" {
		t.Fatalf("unexpected unknown fields: %#v", u)
	}
	re, err := Encode(u)
	if err != nil {
		t.Fatalf("Encode unknown: %v", err)
	}
	if string(re) != string(raw) {
		t.Fatalf("unknown payload not preserved: %s", re)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"label":"no type"}`,
		`{"type":"number_input","min_value":"abc"}`,
		`{"type":"radio","options":"not-a-list"}`,
	}
	for _, raw := range cases {
		if _, err := Decode(json.RawMessage(raw)); err == nil {
			t.Fatalf("expected DecodeError for %s", raw)
		} else if _, ok := err.(DecodeError); !ok {
			t.Fatalf("expected DecodeError for %s, got %T", raw, err)
		}
	}
}

func TestIsComponentPayload(t *testing.T) {
	if !IsComponentPayload(json.RawMessage(`{"type":"table","data":[]}`)) {
		t.Fatal("expected component payload")
	}
	if IsComponentPayload(json.RawMessage(`"plain text"`)) {
		t.Fatal("plain text is not a component payload")
	}
	if IsComponentPayload(json.RawMessage(`{"other":"object"}`)) {
		t.Fatal("object without type is not a component payload")
	}
}
