package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"componentdb/pkg/models"
	"componentdb/pkg/store"
	"componentdb/pkg/utils"
)

// RegisterThreads registers thread-level HTTP routes.
func RegisterThreads(r *mux.Router) {
	r.HandleFunc("/threads", createThread).Methods(http.MethodPost)
	r.HandleFunc("/threads", listThreads).Methods(http.MethodGet)
	r.HandleFunc("/threads/{id}", getThread).Methods(http.MethodGet)
}

// createThread handles POST /threads. Creation is idempotent: posting
// an existing thread id returns the stored thread unchanged.
func createThread(w http.ResponseWriter, r *http.Request) {
	var t models.Thread
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if t.ID == "" {
		t.ID = utils.GenThreadID()
	}
	th, err := store.EnsureThread(t.ID, t.Title)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, th)
}

// listThreads handles GET /threads.
func listThreads(w http.ResponseWriter, r *http.Request) {
	vals, err := store.ListThreads()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Threads []models.Thread `json:"threads"`
	}{Threads: vals})
}

// getThread handles GET /threads/{id}. Reads never fail for a missing
// thread unless pre-registration is required; the thread is created
// empty on first access.
func getThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	th, err := store.EnsureThread(id, "")
	if err != nil {
		if errors.Is(err, store.ErrThreadNotFound) {
			utils.JSONError(w, http.StatusNotFound, "thread not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, th)
}
