package logger

// Fields is an alias for map[string]any for convenience.
type Fields map[string]any

// Standard field names.
const (
	FieldJobID     = "job_id"
	FieldTaskID    = "task_id"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldStatus    = "status"
	FieldProgress  = "progress"
	FieldURL       = "url"
	FieldAttempt   = "attempt"

	FieldRequestID  = "request_id"
	FieldDurationMs = "duration_ms"
)
