package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"componentdb/pkg/logger"
	"componentdb/pkg/metrics"
	"componentdb/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string

	// requireRegistered disables lazy thread creation; reads and patches
	// against unknown threads then fail with ErrThreadNotFound instead.
	requireRegistered bool

	locksMu     sync.Mutex
	threadLocks map[string]*sync.Mutex
)

// ErrThreadNotFound is returned for operations against a thread that
// does not exist while the store requires pre-registration.
var ErrThreadNotFound = errors.New("thread not found")

// PatchAction reports which path PatchMessageByID took.
type PatchAction string

const (
	PatchActionPatched  PatchAction = "patched"
	PatchActionAppended PatchAction = "appended"
)

// PatchResult is the observable outcome of a patch-by-id operation.
type PatchResult struct {
	Action  PatchAction `json:"action"`
	Ordinal uint64      `json:"ordinal"`
}

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	threadLocks = make(map[string]*sync.Mutex)
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// SetRequireRegistered switches off lazy thread creation. Intended for
// deployments that pre-provision threads out of band.
func SetRequireRegistered(v bool) { requireRegistered = v }

// lockThread serializes mutations per thread. Different threads never
// contend with each other.
func lockThread(threadID string) *sync.Mutex {
	locksMu.Lock()
	defer locksMu.Unlock()
	if threadLocks == nil {
		threadLocks = make(map[string]*sync.Mutex)
	}
	l, ok := threadLocks[threadID]
	if !ok {
		l = &sync.Mutex{}
		threadLocks[threadID] = l
	}
	return l
}

func metaKey(threadID string) []byte {
	return []byte("thread:" + threadID + ":meta")
}

func msgKey(threadID string, ordinal uint64) []byte {
	return []byte(fmt.Sprintf("thread:%s:msg:%020d", threadID, ordinal))
}

func msgPrefix(threadID string) []byte {
	return []byte("thread:" + threadID + ":msg:")
}

// EnsureThread returns the thread metadata, creating the thread empty
// when absent. Creating an already-existing thread is a no-op.
func EnsureThread(threadID, title string) (models.Thread, error) {
	if db == nil {
		return models.Thread{}, fmt.Errorf("pebble not opened; call store.Open first")
	}
	l := lockThread(threadID)
	l.Lock()
	defer l.Unlock()
	return ensureThreadLocked(threadID, title)
}

func ensureThreadLocked(threadID, title string) (models.Thread, error) {
	th, err := GetThread(threadID)
	if err == nil {
		return th, nil
	}
	if !errors.Is(err, ErrThreadNotFound) {
		return models.Thread{}, err
	}
	if requireRegistered {
		return models.Thread{}, ErrThreadNotFound
	}
	now := time.Now().UTC().UnixNano()
	th = models.Thread{ID: threadID, Title: title, CreatedTS: now, UpdatedTS: now}
	if err := putThread(th, nil); err != nil {
		return models.Thread{}, err
	}
	logger.Info("thread_created", "thread", threadID)
	return th, nil
}

// GetThread fetches thread metadata without creating it.
func GetThread(threadID string) (models.Thread, error) {
	if db == nil {
		return models.Thread{}, fmt.Errorf("pebble not opened; call store.Open first")
	}
	val, closer, err := db.Get(metaKey(threadID))
	if errors.Is(err, pebble.ErrNotFound) {
		return models.Thread{}, ErrThreadNotFound
	}
	if err != nil {
		return models.Thread{}, err
	}
	defer closer.Close()
	var th models.Thread
	if err := json.Unmarshal(val, &th); err != nil {
		return models.Thread{}, fmt.Errorf("invalid thread metadata for %s: %w", threadID, err)
	}
	return th, nil
}

func putThread(th models.Thread, batch *pebble.Batch) error {
	data, err := json.Marshal(th)
	if err != nil {
		return fmt.Errorf("failed to marshal thread: %w", err)
	}
	if batch != nil {
		return batch.Set(metaKey(th.ID), data, nil)
	}
	return db.Set(metaKey(th.ID), data, pebble.Sync)
}

// ReadThread returns the full transcript snapshot in ordinal order.
// Missing threads are lazily created and read as empty.
func ReadThread(threadID string) ([]models.Message, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	if _, err := EnsureThread(threadID, ""); err != nil {
		return nil, err
	}
	prefix := msgPrefix(threadID)
	upper := append(append([]byte{}, prefix...), 0xff)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("corrupt message at %s: %w", string(iter.Key()), err)
		}
		out = append(out, m)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendMessage assigns the next ordinal, stores the message, and
// returns the ordinal. Ordinals are strictly increasing per thread with
// no gaps or reuse.
func AppendMessage(threadID string, msg models.Message) (uint64, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	l := lockThread(threadID)
	l.Lock()
	defer l.Unlock()
	return appendLocked(threadID, msg)
}

func appendLocked(threadID string, msg models.Message) (uint64, error) {
	th, err := ensureThreadLocked(threadID, "")
	if err != nil {
		return 0, err
	}
	th.LastOrdinal++
	th.UpdatedTS = time.Now().UTC().UnixNano()

	msg.Thread = threadID
	msg.Ordinal = th.LastOrdinal
	if msg.TS == 0 {
		msg.TS = th.UpdatedTS
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	// message and thread metadata commit together
	batch := db.NewBatch()
	defer batch.Close()
	if err := batch.Set(msgKey(threadID, msg.Ordinal), data, nil); err != nil {
		return 0, err
	}
	if err := putThread(th, batch); err != nil {
		return 0, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("append_message_failed", "thread", threadID, "msg_id", msg.ID, "error", err)
		return 0, err
	}
	metrics.MessagesAppended.WithLabelValues(string(msg.Role)).Inc()
	logger.Info("message_appended", "thread", threadID, "msg_id", msg.ID, "ordinal", msg.Ordinal)
	return msg.Ordinal, nil
}

// PatchMessageByID replaces the body of the message with the matching
// id, leaving its ordinal untouched. When no such message exists the
// update is appended as a new component message instead of being
// dropped. The returned result reports which action happened; callers
// should treat a fallback append as anomalous and alert on it.
func PatchMessageByID(threadID, messageID string, newBody json.RawMessage) (PatchResult, error) {
	if db == nil {
		return PatchResult{}, fmt.Errorf("pebble not opened; call store.Open first")
	}
	l := lockThread(threadID)
	l.Lock()
	defer l.Unlock()

	if requireRegistered {
		if _, err := GetThread(threadID); err != nil {
			return PatchResult{}, err
		}
	}

	prefix := msgPrefix(threadID)
	upper := append(append([]byte{}, prefix...), 0xff)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return PatchResult{}, err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			continue
		}
		if m.ID != messageID {
			continue
		}
		key := append([]byte{}, iter.Key()...)
		_ = iter.Close()

		m.Body = newBody
		data, merr := json.Marshal(m)
		if merr != nil {
			return PatchResult{}, fmt.Errorf("failed to marshal patched message: %w", merr)
		}
		th, terr := ensureThreadLocked(threadID, "")
		if terr != nil {
			return PatchResult{}, terr
		}
		th.UpdatedTS = time.Now().UTC().UnixNano()

		batch := db.NewBatch()
		defer batch.Close()
		if err := batch.Set(key, data, nil); err != nil {
			return PatchResult{}, err
		}
		if err := putThread(th, batch); err != nil {
			return PatchResult{}, err
		}
		if err := batch.Commit(pebble.Sync); err != nil {
			logger.Error("patch_message_failed", "thread", threadID, "msg_id", messageID, "error", err)
			return PatchResult{}, err
		}
		metrics.PatchesApplied.WithLabelValues(string(PatchActionPatched)).Inc()
		logger.Info("message_patched", "thread", threadID, "msg_id", messageID, "ordinal", m.Ordinal)
		return PatchResult{Action: PatchActionPatched, Ordinal: m.Ordinal}, nil
	}
	ierr := iter.Error()
	_ = iter.Close()
	if ierr != nil {
		return PatchResult{}, ierr
	}

	// append-as-fallback: never lose an update
	ord, err := appendLocked(threadID, models.Message{ID: messageID, Role: models.RoleComponent, Body: newBody})
	if err != nil {
		return PatchResult{}, err
	}
	metrics.PatchesApplied.WithLabelValues(string(PatchActionAppended)).Inc()
	logger.Warn("patch_fallback_append", "thread", threadID, "msg_id", messageID, "ordinal", ord)
	return PatchResult{Action: PatchActionAppended, Ordinal: ord}, nil
}

// ListThreads returns metadata for every stored thread.
func ListThreads() ([]models.Thread, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	lower := []byte("thread:")
	upper := []byte("thread:\xff")
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Thread
	suffix := []byte(":meta")
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) < len(suffix) || string(key[len(key)-len(suffix):]) != string(suffix) {
			continue
		}
		var th models.Thread
		if err := json.Unmarshal(iter.Value(), &th); err != nil {
			continue
		}
		out = append(out, th)
	}
	return out, iter.Error()
}

// PurgeThread removes a thread and its entire transcript. Used by the
// retention runner; the protocol itself never deletes.
func PurgeThread(threadID string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	l := lockThread(threadID)
	l.Lock()
	defer l.Unlock()
	lower := []byte("thread:" + threadID + ":")
	upper := []byte("thread:" + threadID + ":\xff")
	if err := db.DeleteRange(lower, upper, pebble.Sync); err != nil {
		logger.Error("purge_thread_failed", "thread", threadID, "error", err)
		return err
	}
	logger.Info("thread_purged", "thread", threadID)
	return nil
}
