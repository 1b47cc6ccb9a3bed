// Package jobstatus models the status of a face-swap job as reported by the
// backend, and the rule that reconciles two sources of it.
package jobstatus

import (
	"strings"

	"golang.org/x/text/cases"
)

// State is the logical lifecycle state of a job.
type State string

// State constants define the lifecycle states of a job.
const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateUnknown    State = "unknown"
)

// aliases maps case-folded raw status strings to their logical state. The
// upper-case Celery names (PROGRESS, SUCCESS, FAILURE) fold onto the same keys.
var aliases = map[string]State{
	"queued":     StateQueued,
	"pending":    StateQueued,
	"received":   StateQueued,
	"processing": StateProcessing,
	"progress":   StateProcessing,
	"started":    StateProcessing,
	"running":    StateProcessing,
	"retry":      StateProcessing,
	"completed":  StateCompleted,
	"success":    StateCompleted,
	"failed":     StateFailed,
	"failure":    StateFailed,
	"revoked":    StateFailed,
}

// ParseState normalizes a raw status string. Unrecognized or empty values map
// to StateUnknown.
func ParseState(raw string) State {
	key := cases.Fold().String(strings.TrimSpace(raw))
	if s, ok := aliases[key]; ok {
		return s
	}
	return StateUnknown
}

// IsTerminal returns true for states after which a job never changes again.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}
