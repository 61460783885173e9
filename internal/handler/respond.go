package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// writeJSON serializes v as the response body with the given status.
// Encoding errors at this point mean the connection is gone; they are logged
// and otherwise ignored.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}

// decodeJSON parses the request body into dst, writing the error response
// itself when parsing fails. Returns false when the caller should stop.
// A body rejected by middleware.NewMaxBodySizeHandler surfaces here as
// *http.MaxBytesError and maps to 413.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, requestBody("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, requestBody("invalid JSON body"))
		return false
	}
	return true
}

// queryInt parses an optional positive integer query parameter, returning
// nil when absent or unparsable.
func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
