package handlers

import (
	"net/http"
)

// setupSSEConnection sets the event stream headers.
// Returns the flusher and true on success. On failure, writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}
