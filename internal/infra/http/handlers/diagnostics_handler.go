package handlers

import (
	"net/http"
	"os"
)

// DiagnosticsHandler reports which configuration variables are present.
// Values are never included.
type DiagnosticsHandler struct {
	Names []string
}

func NewDiagnosticsHandler(names ...string) *DiagnosticsHandler {
	return &DiagnosticsHandler{Names: names}
}

func (h *DiagnosticsHandler) Env(w http.ResponseWriter, r *http.Request) {
	present := make(map[string]bool, len(h.Names))
	for _, name := range h.Names {
		_, ok := os.LookupEnv(name)
		present[name] = ok
	}
	writeJSON(w, http.StatusOK, map[string]any{"env": present})
}
