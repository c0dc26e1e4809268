// Package merge applies user-supplied values to existing input
// component messages. Every update is total-or-nothing: a rejected
// value leaves the transcript byte-identical, so callers can retry a
// corrected value without replaying history.
package merge

import (
	"encoding/json"
	"errors"
	"fmt"

	"componentdb/pkg/components"
	"componentdb/pkg/logger"
	"componentdb/pkg/metrics"
	"componentdb/pkg/models"
	"componentdb/pkg/store"
)

// ErrComponentNotFound means the update targets a message id that was
// never created. This is a caller-facing guarantee, distinct from the
// store's internal append-as-fallback durability net.
var ErrComponentNotFound = errors.New("component message not found")

// ErrNotUpdatable means the target is an output component, an unknown
// kind, or not a decodable component at all.
var ErrNotUpdatable = errors.New("component is not updatable")

// InvalidValueError names the field and constraint a proposed value
// violates. The original message is left untouched.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}

// ApplyUserInput merges a user-supplied value into the component
// message identified by messageID and returns the resulting transcript
// snapshot.
func ApplyUserInput(threadID, messageID string, value json.RawMessage) ([]models.Message, error) {
	msgs, err := store.ReadThread(threadID)
	if err != nil {
		return nil, err
	}

	var target *models.Message
	for i := range msgs {
		if msgs[i].ID == messageID {
			target = &msgs[i]
			break
		}
	}
	if target == nil {
		metrics.MergeRejections.WithLabelValues("not_found").Inc()
		return nil, ErrComponentNotFound
	}

	comp, err := components.Decode(target.Body)
	if err != nil {
		metrics.MergeRejections.WithLabelValues("not_updatable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrNotUpdatable, err)
	}
	in, ok := comp.(components.Input)
	if !ok {
		metrics.MergeRejections.WithLabelValues("not_updatable").Inc()
		return nil, fmt.Errorf("%w: kind %s", ErrNotUpdatable, comp.Kind())
	}

	if err := in.ValidateValue(value); err != nil {
		metrics.MergeRejections.WithLabelValues("invalid_value").Inc()
		var ve components.ValidationError
		if errors.As(err, &ve) {
			return nil, InvalidValueError{Field: ve.Field, Reason: ve.Reason}
		}
		return nil, InvalidValueError{Field: "value", Reason: err.Error()}
	}

	updated, err := in.WithValue(value)
	if err != nil {
		metrics.MergeRejections.WithLabelValues("invalid_value").Inc()
		return nil, InvalidValueError{Field: "value", Reason: err.Error()}
	}
	payload, err := components.Encode(updated)
	if err != nil {
		return nil, err
	}

	res, err := store.PatchMessageByID(threadID, messageID, payload)
	if err != nil {
		return nil, err
	}
	if res.Action != store.PatchActionPatched {
		// the message was present a moment ago; an append here means the
		// caller raced a purge
		logger.Warn("merge_patch_fell_back_to_append", "thread", threadID, "msg_id", messageID)
	}
	logger.Info("user_input_merged", "thread", threadID, "msg_id", messageID, "kind", comp.Kind())
	return store.ReadThread(threadID)
}
