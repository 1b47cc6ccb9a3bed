package handlers

import (
	"net/http"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/tracker"
)

// StatusSource is the tracked job whose status is relayed.
type StatusSource interface {
	Current() (jobstatus.Status, bool)
	State() tracker.State
	Identity() jobstatus.Identity
	Subscribe() chan tracker.Update
	Unsubscribe(ch chan tracker.Update)
}

// StatusResponse is the relayed view of the displayed status.
type StatusResponse struct {
	State       tracker.State   `json:"state"`
	JobID       string          `json:"job_id"`
	TaskID      string          `json:"task_id"`
	Status      string          `json:"status"`
	Progress    int             `json:"progress"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
	Text        string          `json:"text"`
	Color       jobstatus.Color `json:"color"`
	DownloadURL string          `json:"download_url,omitempty"`
	Source      tracker.Source  `json:"source,omitempty"`
}

// StatusHandler serves the current status of a tracked job.
type StatusHandler struct {
	source     StatusSource
	resolveURL func(string) string
}

// NewStatusHandler creates a status handler. resolveURL turns a relative
// output URL into an absolute download address.
func NewStatusHandler(source StatusSource, resolveURL func(string) string) *StatusHandler {
	return &StatusHandler{source: source, resolveURL: resolveURL}
}

func (h *StatusHandler) response(state tracker.State, id jobstatus.Identity, st jobstatus.Status, source tracker.Source) StatusResponse {
	resp := StatusResponse{
		State:    state,
		JobID:    id.JobID,
		TaskID:   id.TaskID,
		Status:   st.Status,
		Progress: st.Progress,
		Message:  st.Message,
		Error:    st.Error,
		Text:     st.Text(),
		Color:    st.Color(),
		Source:   source,
	}
	if st.HasResult() && h.resolveURL != nil {
		resp.DownloadURL = h.resolveURL(st.OutputURL)
	}
	return resp
}

// Get returns the current status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := h.source.Current()
	if !ok {
		respondError(w, http.StatusNotFound, "no job is being tracked")
		return
	}
	respondJSON(w, http.StatusOK, h.response(h.source.State(), h.source.Identity(), st, ""))
}

// Events streams status changes as server-sent events until the job is
// terminal or the client disconnects.
func (h *StatusHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	updates := h.source.Subscribe()
	defer h.source.Unsubscribe(updates)

	state := h.source.State()
	if st, ok := h.source.Current(); ok {
		sendSSEEvent(w, flusher, "status", h.response(state, h.source.Identity(), st, ""))
		if state == tracker.StateTerminal {
			return
		}
	} else {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, "status", h.response(u.State, u.Identity, u.Status, u.Source))
			if u.State == tracker.StateTerminal {
				return
			}
		}
	}
}
