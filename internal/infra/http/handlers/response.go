package handlers

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error   string              `json:"error"`
	Details []fieldErrorPayload `json:"details,omitempty"`
}

type fieldErrorPayload struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
