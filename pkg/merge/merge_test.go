package merge

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"componentdb/pkg/components"
	"componentdb/pkg/logger"
	"componentdb/pkg/models"
	"componentdb/pkg/store"
)

func openTestStore(t *testing.T) {
	t.Helper()
	logger.Init()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func f(v float64) *float64 { return &v }

func appendComponent(t *testing.T, threadID, msgID string, c components.Component) {
	t.Helper()
	body, err := components.Encode(c)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := store.AppendMessage(threadID, models.Message{ID: msgID, Role: models.RoleComponent, Body: body}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
}

// TestNumberConstraints exercises the spec's number-input property: 150
// is rejected against [0,100], 42 is accepted and readable back.
func TestNumberConstraints(t *testing.T) {
	openTestStore(t)
	appendComponent(t, "t1", "m1", components.NumberInput{
		Type: components.KindNumberInput, Key: "c1", Label: "Amount",
		MinValue: f(0), MaxValue: f(100),
	})

	_, err := ApplyUserInput("t1", "m1", json.RawMessage(`150`))
	var ive InvalidValueError
	if !errors.As(err, &ive) {
		t.Fatalf("expected InvalidValueError, got %v", err)
	}
	if ive.Field != "value" {
		t.Fatalf("expected error on value, got %s", ive.Field)
	}

	msgs, err := ApplyUserInput("t1", "m1", json.RawMessage(`42`))
	if err != nil {
		t.Fatalf("ApplyUserInput(42): %v", err)
	}
	comp, err := components.Decode(msgs[0].Body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n, ok := comp.(components.NumberInput)
	if !ok || n.Value == nil || *n.Value != 42 {
		t.Fatalf("value not merged: %#v", comp)
	}
}

// TestChoiceMembership verifies option membership is enforced.
func TestChoiceMembership(t *testing.T) {
	openTestStore(t)
	appendComponent(t, "t1", "m1", components.Choice{
		Type: components.KindRadio, Key: "c1", Label: "Color",
		Options: []string{"red", "green", "blue"},
	})

	if _, err := ApplyUserInput("t1", "m1", json.RawMessage(`"purple"`)); err == nil {
		t.Fatal("non-member value accepted")
	}
	msgs, err := ApplyUserInput("t1", "m1", json.RawMessage(`"green"`))
	if err != nil {
		t.Fatalf("ApplyUserInput(green): %v", err)
	}
	c, _ := components.Decode(msgs[0].Body)
	if string(c.(components.Choice).Value) != `"green"` {
		t.Fatalf("value not merged: %#v", c)
	}
}

// TestMergeTotality verifies a rejected update leaves the transcript
// byte-identical, and an accepted one changes only the target value.
func TestMergeTotality(t *testing.T) {
	openTestStore(t)
	appendComponent(t, "t1", "m1", components.NumberInput{
		Type: components.KindNumberInput, Key: "c1", Label: "Amount",
		MinValue: f(0), MaxValue: f(10),
	})
	if _, err := store.AppendMessage("t1", models.Message{ID: "m2", Role: models.RoleAgent, Body: models.TextBody("done")}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	before, _ := store.ReadThread("t1")

	if _, err := ApplyUserInput("t1", "m1", json.RawMessage(`999`)); err == nil {
		t.Fatal("out-of-range value accepted")
	}
	afterReject, _ := store.ReadThread("t1")
	if !reflect.DeepEqual(before, afterReject) {
		t.Fatalf("rejected merge mutated transcript:\nbefore %#v\nafter  %#v", before, afterReject)
	}

	afterAccept, err := ApplyUserInput("t1", "m1", json.RawMessage(`7`))
	if err != nil {
		t.Fatalf("ApplyUserInput: %v", err)
	}
	if len(afterAccept) != len(before) {
		t.Fatalf("merge changed transcript length: %d != %d", len(afterAccept), len(before))
	}
	if !reflect.DeepEqual(afterAccept[1], before[1]) {
		t.Fatal("merge touched an unrelated message")
	}
	if afterAccept[0].Ordinal != before[0].Ordinal || afterAccept[0].ID != before[0].ID {
		t.Fatal("merge changed message identity or position")
	}
}

func TestComponentNotFound(t *testing.T) {
	openTestStore(t)
	if _, err := ApplyUserInput("t1", "nope", json.RawMessage(`1`)); !errors.Is(err, ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
	// the not-found path must not trip the store's append fallback
	msgs, _ := store.ReadThread("t1")
	if len(msgs) != 0 {
		t.Fatalf("failed update appended a message: %#v", msgs)
	}
}

func TestNotUpdatable(t *testing.T) {
	openTestStore(t)

	// output component
	appendComponent(t, "t1", "m1", components.Table{
		Type: components.KindTable, Key: "c1", Rows: []map[string]any{{"a": float64(1)}},
	})
	if _, err := ApplyUserInput("t1", "m1", json.RawMessage(`1`)); !errors.Is(err, ErrNotUpdatable) {
		t.Fatalf("expected ErrNotUpdatable for table, got %v", err)
	}

	// plain text message
	if _, err := store.AppendMessage("t1", models.Message{ID: "m2", Role: models.RoleAgent, Body: models.TextBody("hello")}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := ApplyUserInput("t1", "m2", json.RawMessage(`1`)); !errors.Is(err, ErrNotUpdatable) {
		t.Fatalf("expected ErrNotUpdatable for text, got %v", err)
	}

	// unknown kind decodes fine but cannot be updated
	if _, err := store.AppendMessage("t1", models.Message{ID: "m3", Role: models.RoleComponent, Body: json.RawMessage(`{"type":"future_widget_xyz","key":"fw"}`)}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := ApplyUserInput("t1", "m3", json.RawMessage(`1`)); !errors.Is(err, ErrNotUpdatable) {
		t.Fatalf("expected ErrNotUpdatable for unknown kind, got %v", err)
	}
}

// TestMultiselectMultiplicity verifies list-vs-single enforcement at
// merge time.
func TestMultiselectMultiplicity(t *testing.T) {
	openTestStore(t)
	appendComponent(t, "t1", "m1", components.Choice{
		Type: components.KindMultiselect, Key: "c1", Label: "Pick",
		Options: []string{"a", "b", "c"},
	})

	if _, err := ApplyUserInput("t1", "m1", json.RawMessage(`"a"`)); err == nil {
		t.Fatal("single value accepted by multiselect")
	}
	if _, err := ApplyUserInput("t1", "m1", json.RawMessage(`["a","c"]`)); err != nil {
		t.Fatalf("valid multiselect rejected: %v", err)
	}
}
