package api

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFieldErrors reports per-field validation failures; step is included
// for the multi-step KYC form so the console knows where to snap back.
func writeFieldErrors(w http.ResponseWriter, step string, fields map[string]string) {
	body := map[string]interface{}{"errors": fields}
	if step != "" {
		body["step"] = step
	}
	writeJSON(w, http.StatusUnprocessableEntity, body)
}
