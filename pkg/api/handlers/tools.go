package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"componentdb/pkg/agent"
	"componentdb/pkg/utils"
)

// RegisterTools registers the component tool surface route so agent
// integrations can discover the callable kinds.
func RegisterTools(r *mux.Router) {
	r.HandleFunc("/components/tools", listTools).Methods(http.MethodGet)
}

func listTools(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Prompt string       `json:"prompt"`
		Tools  []agent.Tool `json:"tools"`
	}{Prompt: agent.Prompt, Tools: agent.Tools()})
}
