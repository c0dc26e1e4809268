package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"componentdb/pkg/components"
	"componentdb/pkg/models"
	"componentdb/pkg/store"
	"componentdb/pkg/utils"
)

// RegisterMessages registers transcript message routes.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/threads/{threadID}/messages", createMessage).Methods(http.MethodPost)
	r.HandleFunc("/threads/{threadID}/messages", listMessages).Methods(http.MethodGet)
	r.HandleFunc("/threads/{threadID}/messages/{id}", getMessage).Methods(http.MethodGet)
}

// createMessage handles POST /threads/{threadID}/messages. Component
// messages are schema-validated before they enter the transcript.
func createMessage(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]

	var m models.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(m.Body) == 0 {
		utils.JSONError(w, http.StatusBadRequest, "body is required")
		return
	}
	if m.ID == "" {
		m.ID = utils.GenMessageID()
	}
	if m.Role == "" {
		m.Role = models.RoleUser
	}
	if m.Role == models.RoleComponent {
		comp, err := components.Decode(m.Body)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := components.Validate(comp); err != nil {
			utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	ord, err := store.AppendMessage(threadID, m)
	if err != nil {
		if errors.Is(err, store.ErrThreadNotFound) {
			utils.JSONError(w, http.StatusNotFound, "thread not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	m.Thread = threadID
	m.Ordinal = ord
	_ = utils.JSONWrite(w, http.StatusCreated, m)
}

// listMessages handles GET /threads/{threadID}/messages. The response
// is the full ordinal-ordered transcript snapshot; an optional limit
// keeps only the newest n messages.
func listMessages(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]
	msgs, err := store.ReadThread(threadID)
	if err != nil {
		if errors.Is(err, store.ErrThreadNotFound) {
			utils.JSONError(w, http.StatusNotFound, "thread not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if lim, err := strconv.Atoi(limStr); err == nil && lim >= 0 && lim < len(msgs) {
			msgs = msgs[len(msgs)-lim:]
		}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Thread   string           `json:"thread"`
		Messages []models.Message `json:"messages"`
	}{Thread: threadID, Messages: msgs})
}

// getMessage handles GET /threads/{threadID}/messages/{id}.
func getMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	msgs, err := store.ReadThread(vars["threadID"])
	if err != nil {
		if errors.Is(err, store.ErrThreadNotFound) {
			utils.JSONError(w, http.StatusNotFound, "thread not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, m := range msgs {
		if m.ID == vars["id"] {
			_ = utils.JSONWrite(w, http.StatusOK, m)
			return
		}
	}
	utils.JSONError(w, http.StatusNotFound, "message not found")
}
