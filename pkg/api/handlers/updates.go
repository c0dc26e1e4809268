package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"componentdb/pkg/merge"
	"componentdb/pkg/models"
	"componentdb/pkg/store"
	"componentdb/pkg/utils"
)

// RegisterUpdates registers the component input merge route.
func RegisterUpdates(r *mux.Router) {
	r.HandleFunc("/threads/{threadID}/messages/{id}/input", applyInput).Methods(http.MethodPost)
}

// applyInput handles POST /threads/{threadID}/messages/{id}/input. The
// body carries the proposed value: {"value": ...}. A rejected value
// leaves the transcript untouched.
func applyInput(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Value) == 0 {
		utils.JSONError(w, http.StatusBadRequest, "value is required")
		return
	}

	msgs, err := merge.ApplyUserInput(vars["threadID"], vars["id"], req.Value)
	if err != nil {
		var ive merge.InvalidValueError
		switch {
		case errors.Is(err, merge.ErrComponentNotFound):
			utils.JSONError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, merge.ErrNotUpdatable):
			utils.JSONError(w, http.StatusConflict, err.Error())
		case errors.As(err, &ive):
			utils.JSONError(w, http.StatusUnprocessableEntity, ive.Error())
		case errors.Is(err, store.ErrThreadNotFound):
			utils.JSONError(w, http.StatusNotFound, "thread not found")
		default:
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: vars["threadID"], Messages: msgs})
}
