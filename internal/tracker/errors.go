package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingUpload is returned when processing is requested before both files were uploaded.
	ErrMissingUpload = errors.New("both a video and a face image must be uploaded first")
	// ErrClosed is returned by a controller after Close.
	ErrClosed = errors.New("controller closed")
	// ErrIdle is returned when waiting on a controller that tracks no job.
	ErrIdle = errors.New("no job is being tracked")
	// ErrSuperseded is returned to waiters of a job that was replaced by a new submission.
	ErrSuperseded = errors.New("job superseded by a new submission")
	// ErrNoSubmitter is returned by StartProcessing on a controller built without a Submitter.
	ErrNoSubmitter = errors.New("controller has no submitter")
)

// SubmitError wraps a failed submission. The controller state is unchanged.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("could not submit job: %v", e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
