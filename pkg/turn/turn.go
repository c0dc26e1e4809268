// Package turn orchestrates one round of conversation: append the user
// message, hand the full transcript to the agent-loop collaborator, and
// commit only a verified extension of history.
package turn

import (
	"context"
	"errors"
	"fmt"

	"componentdb/pkg/agent"
	"componentdb/pkg/components"
	"componentdb/pkg/logger"
	"componentdb/pkg/metrics"
	"componentdb/pkg/models"
	"componentdb/pkg/store"
	"componentdb/pkg/utils"
)

// Agent is the external tool-calling collaborator. It receives the
// complete transcript plus the component tool surface and returns the
// complete updated transcript; it owns text generation and component
// emission and must only ever extend history, never rewrite it.
type Agent interface {
	Call(ctx context.Context, transcript []models.Message, tools []agent.Tool) ([]models.Message, error)
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc func(ctx context.Context, transcript []models.Message, tools []agent.Tool) ([]models.Message, error)

func (f AgentFunc) Call(ctx context.Context, transcript []models.Message, tools []agent.Tool) ([]models.Message, error) {
	return f(ctx, transcript, tools)
}

// ErrTranscriptDiverged means the collaborator returned a transcript
// whose prefix does not match stored history. The turn is aborted with
// nothing committed past the user message; the thread stays usable.
var ErrTranscriptDiverged = errors.New("agent transcript diverged from stored history")

// RunTurn appends userText as a user message, invokes the collaborator,
// verifies and persists its extension, and returns every message new
// this turn (the user message included - callers render the suffix).
//
// If the collaborator fails or is cancelled, the transcript remains
// exactly as it was after the user-message append.
func RunTurn(ctx context.Context, threadID, userText string, ag Agent) ([]models.Message, error) {
	before, err := store.ReadThread(threadID)
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{
		ID:   utils.GenMessageID(),
		Role: models.RoleUser,
		Body: models.TextBody(userText),
	}
	if _, err := store.AppendMessage(threadID, userMsg); err != nil {
		return nil, err
	}

	base, err := store.ReadThread(threadID)
	if err != nil {
		return nil, err
	}

	returned, err := ag.Call(ctx, base, agent.Tools())
	if err != nil {
		metrics.TurnsRun.WithLabelValues("agent_error").Inc()
		return nil, fmt.Errorf("agent call failed: %w", err)
	}

	if !prefixMatches(base, returned) {
		metrics.TurnsRun.WithLabelValues("diverged").Inc()
		logger.Error("turn_transcript_diverged", "thread", threadID, "stored", len(base), "returned", len(returned))
		return nil, ErrTranscriptDiverged
	}

	for _, m := range returned[len(base):] {
		if m.ID == "" {
			m.ID = utils.GenMessageID()
		}
		if m.Role == "" {
			if len(m.Body) > 0 && components.IsComponentPayload(m.Body) {
				m.Role = models.RoleComponent
			} else {
				m.Role = models.RoleAgent
			}
		}
		if _, err := store.AppendMessage(threadID, m); err != nil {
			return nil, err
		}
	}

	after, err := store.ReadThread(threadID)
	if err != nil {
		return nil, err
	}
	metrics.TurnsRun.WithLabelValues("ok").Inc()
	logger.Info("turn_completed", "thread", threadID, "new_messages", len(after)-len(before))
	return after[len(before):], nil
}

// prefixMatches verifies the collaborator only extended history: the
// returned transcript must open with exactly the stored messages, the
// just-appended user message included.
func prefixMatches(stored, returned []models.Message) bool {
	if len(returned) < len(stored) {
		return false
	}
	for i := range stored {
		if returned[i].ID != stored[i].ID || returned[i].Role != stored[i].Role {
			return false
		}
		if !stored[i].BodyEqual(returned[i]) {
			return false
		}
	}
	return true
}
