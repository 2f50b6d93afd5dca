package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rapidgeo/rapid/internal/services/geodata"
)

// writeError maps service failures to HTTP responses. NotFound and
// NotPermitted intentionally produce the same response so callers cannot
// probe whether a resource exists versus is merely inaccessible.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, geodata.ErrNotFound), errors.Is(err, geodata.ErrNotPermitted):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, geodata.ErrDuplicateContent):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "duplicate content"})
	case errors.Is(err, geodata.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}
