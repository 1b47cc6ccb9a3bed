package jobstatus

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Status is a single status report of a job.
type Status struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	OutputURL string `json:"output_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// State returns the normalized state of the raw status.
func (s Status) State() State {
	return ParseState(s.Status)
}

// IsTerminal returns true if the job reached completed or failed.
func (s Status) IsTerminal() bool {
	return s.State().IsTerminal()
}

// HasResult returns true when the job completed and reported a result location.
func (s Status) HasResult() bool {
	return s.State() == StateCompleted && s.OutputURL != ""
}

// normalized returns a copy with progress clamped to 0..100.
func (s Status) normalized() Status {
	s.Progress = clampProgress(s.Progress)
	return s
}

func clampProgress(p int) int {
	return min(max(p, 0), 100)
}

// UnmarshalJSON decodes a status leniently: progress may be an integer, a
// float or a numeric string, and missing fields stay empty.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw struct {
		JobID     string          `json:"job_id"`
		Status    string          `json:"status"`
		Progress  json.RawMessage `json:"progress"`
		Message   *string         `json:"message"`
		OutputURL *string         `json:"output_url"`
		Error     *string         `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Status{
		JobID:     raw.JobID,
		Status:    raw.Status,
		Progress:  parseProgress(raw.Progress),
		Message:   deref(raw.Message),
		OutputURL: deref(raw.OutputURL),
		Error:     deref(raw.Error),
	}
	return nil
}

// parseProgress accepts 42, 42.7 or "42". Anything else is zero.
func parseProgress(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	text := string(raw)
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0
		}
		text = strings.TrimSpace(str)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int(math.Max(math.Min(f, 100), 0))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
