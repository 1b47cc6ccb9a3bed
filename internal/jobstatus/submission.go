package jobstatus

import (
	"errors"

	"github.com/kozaktomas/faceswap/internal/constants"
)

// ErrEmptySubmission is returned when a submission response names no job at all.
var ErrEmptySubmission = errors.New("submission response carries neither task_id nor job_id")

// Submission is the accepted answer of the backend to a processing request.
// It is either a ModernSubmission or a LegacySubmission.
type Submission interface {
	// Identity returns the handles the job is tracked by.
	Identity() Identity
	// Placeholder returns the status shown until the first report arrives.
	Placeholder() Status

	isSubmission()
}

// ModernSubmission is returned by backends that run jobs on a task queue.
// The task id addresses the poll endpoint; the job id, when present, is what
// push messages carry.
type ModernSubmission struct {
	TaskID  string
	JobID   string
	Status  string
	Message string
}

// Identity implements Submission.
func (m ModernSubmission) Identity() Identity {
	return NewIdentity(m.JobID, m.TaskID)
}

// Placeholder implements Submission.
func (m ModernSubmission) Placeholder() Status {
	st := Status{
		JobID:   m.Identity().JobID,
		Status:  m.Status,
		Message: m.Message,
	}
	if st.Status == "" {
		st.Status = constants.PlaceholderStatus
	}
	if st.Message == "" {
		st.Message = constants.PlaceholderMessage
	}
	return st
}

func (ModernSubmission) isSubmission() {}

// LegacySubmission is returned by backends that only know a job id. The job
// id doubles as the poll handle.
type LegacySubmission struct {
	JobID string
}

// Identity implements Submission.
func (l LegacySubmission) Identity() Identity {
	return NewIdentity(l.JobID, "")
}

// Placeholder implements Submission.
func (l LegacySubmission) Placeholder() Status {
	return Status{JobID: l.JobID, Status: constants.PlaceholderStatus, Message: constants.PlaceholderMessage}
}

func (LegacySubmission) isSubmission() {}

// ResolveSubmission picks the submission variant from the fields of a decoded
// response.
func ResolveSubmission(taskID, jobID, status, message string) (Submission, error) {
	switch {
	case taskID != "":
		return ModernSubmission{TaskID: taskID, JobID: jobID, Status: status, Message: message}, nil
	case jobID != "":
		return LegacySubmission{JobID: jobID}, nil
	default:
		return nil, ErrEmptySubmission
	}
}
