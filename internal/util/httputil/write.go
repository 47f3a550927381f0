package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// WriteString writes str as a plain text response with the given
// status code.
func WriteString(w http.ResponseWriter, status int, str string) error {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)

	if _, err := w.Write([]byte(str)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}
