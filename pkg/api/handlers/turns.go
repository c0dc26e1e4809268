package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"componentdb/pkg/models"
	"componentdb/pkg/store"
	"componentdb/pkg/turn"
	"componentdb/pkg/utils"
)

// RegisterTurns registers the agent turn route. The collaborator may
// be nil when the deployment runs its agent loop elsewhere.
func RegisterTurns(r *mux.Router, ag turn.Agent) {
	r.HandleFunc("/threads/{threadID}/turns", func(w http.ResponseWriter, req *http.Request) {
		runTurn(w, req, ag)
	}).Methods(http.MethodPost)
}

// runTurn handles POST /threads/{threadID}/turns. The response holds
// only the messages new this turn - the caller renders the delta.
func runTurn(w http.ResponseWriter, r *http.Request, ag turn.Agent) {
	if ag == nil {
		utils.JSONError(w, http.StatusServiceUnavailable, "no agent collaborator configured")
		return
	}
	threadID := mux.Vars(r)["threadID"]

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text == "" {
		utils.JSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	newMsgs, err := turn.RunTurn(r.Context(), threadID, req.Text, ag)
	if err != nil {
		switch {
		case errors.Is(err, turn.ErrTranscriptDiverged):
			utils.JSONError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrThreadNotFound):
			utils.JSONError(w, http.StatusNotFound, "thread not found")
		default:
			utils.JSONError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: threadID, Messages: newMsgs})
}
