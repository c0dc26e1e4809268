package store

import (
	"encoding/json"
	"errors"
	"testing"

	"componentdb/pkg/logger"
	"componentdb/pkg/models"
)

func openTestStore(t *testing.T) {
	t.Helper()
	logger.Init()
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		SetRequireRegistered(false)
		_ = Close()
	})
}

// TestEnsureThreadIdempotent verifies get-or-create never errors on an
// existing thread and does not reset its state.
func TestEnsureThreadIdempotent(t *testing.T) {
	openTestStore(t)

	th, err := EnsureThread("t1", "first")
	if err != nil {
		t.Fatalf("EnsureThread: %v", err)
	}
	if th.ID != "t1" || th.Title != "first" {
		t.Fatalf("unexpected thread: %#v", th)
	}

	if _, err := AppendMessage("t1", models.Message{ID: "m1", Role: models.RoleUser, Body: models.TextBody("hi")}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	again, err := EnsureThread("t1", "other title")
	if err != nil {
		t.Fatalf("EnsureThread again: %v", err)
	}
	if again.Title != "first" {
		t.Fatalf("re-create overwrote title: %#v", again)
	}
	if again.LastOrdinal != 1 {
		t.Fatalf("re-create reset ordinals: %#v", again)
	}
}

// TestOrdinalMonotonicity verifies appends yield strictly increasing
// ordinals with no gaps or reuse.
func TestOrdinalMonotonicity(t *testing.T) {
	openTestStore(t)

	for i := 1; i <= 25; i++ {
		ord, err := AppendMessage("t1", models.Message{ID: "m", Role: models.RoleUser, Body: models.TextBody("x")})
		if err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
		if ord != uint64(i) {
			t.Fatalf("expected ordinal %d, got %d", i, ord)
		}
	}
	msgs, err := ReadThread("t1")
	if err != nil {
		t.Fatalf("ReadThread: %v", err)
	}
	if len(msgs) != 25 {
		t.Fatalf("expected 25 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.Ordinal != uint64(i+1) {
			t.Fatalf("message %d has ordinal %d", i, m.Ordinal)
		}
	}
}

func TestReadMissingThreadIsEmpty(t *testing.T) {
	openTestStore(t)

	msgs, err := ReadThread("never-seen")
	if err != nil {
		t.Fatalf("ReadThread: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty transcript, got %d messages", len(msgs))
	}
	// the read created it
	if _, err := GetThread("never-seen"); err != nil {
		t.Fatalf("thread not created on read: %v", err)
	}
}

// TestPatchOrAppend verifies patchById replaces in place when the id
// exists and appends at the next ordinal when it does not.
func TestPatchOrAppend(t *testing.T) {
	openTestStore(t)

	if _, err := AppendMessage("t1", models.Message{ID: "m1", Role: models.RoleComponent, Body: json.RawMessage(`{"v":1}`)}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := AppendMessage("t1", models.Message{ID: "m2", Role: models.RoleUser, Body: models.TextBody("hi")}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	res, err := PatchMessageByID("t1", "m1", json.RawMessage(`{"v":2}`))
	if err != nil {
		t.Fatalf("PatchMessageByID: %v", err)
	}
	if res.Action != PatchActionPatched || res.Ordinal != 1 {
		t.Fatalf("unexpected patch result: %#v", res)
	}
	msgs, _ := ReadThread("t1")
	if len(msgs) != 2 {
		t.Fatalf("patch changed transcript length: %d", len(msgs))
	}
	if string(msgs[0].Body) != `{"v":2}` {
		t.Fatalf("patch did not replace body: %s", msgs[0].Body)
	}
	if msgs[0].Ordinal != 1 {
		t.Fatalf("patch changed ordinal: %d", msgs[0].Ordinal)
	}

	// fallback append for an id that was never created
	res, err = PatchMessageByID("t1", "ghost", json.RawMessage(`{"v":3}`))
	if err != nil {
		t.Fatalf("PatchMessageByID fallback: %v", err)
	}
	if res.Action != PatchActionAppended || res.Ordinal != 3 {
		t.Fatalf("unexpected fallback result: %#v", res)
	}
	msgs, _ = ReadThread("t1")
	if len(msgs) != 3 || msgs[2].ID != "ghost" {
		t.Fatalf("fallback did not append: %#v", msgs)
	}
}

func TestRequireRegistered(t *testing.T) {
	openTestStore(t)
	SetRequireRegistered(true)

	if _, err := ReadThread("nope"); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
	if _, err := PatchMessageByID("nope", "m1", json.RawMessage(`1`)); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
	if _, err := EnsureThread("nope", ""); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
}

func TestPurgeThread(t *testing.T) {
	openTestStore(t)

	if _, err := AppendMessage("t1", models.Message{ID: "m1", Role: models.RoleUser, Body: models.TextBody("hi")}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := PurgeThread("t1"); err != nil {
		t.Fatalf("PurgeThread: %v", err)
	}
	if _, err := GetThread("t1"); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("expected thread gone, got %v", err)
	}
	threads, err := ListThreads()
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 0 {
		t.Fatalf("expected no threads, got %#v", threads)
	}
}
