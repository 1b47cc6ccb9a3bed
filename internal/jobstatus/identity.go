package jobstatus

// Identity is the pair of handles a submitted job is known by. Push messages
// carry the job id; the poll endpoint is addressed by the task id. Either
// handle may identify the job in a received record.
type Identity struct {
	JobID  string `json:"job_id"`
	TaskID string `json:"task_id"`
}

// NewIdentity builds an identity, filling a missing handle from the other one.
func NewIdentity(jobID, taskID string) Identity {
	if jobID == "" {
		jobID = taskID
	}
	if taskID == "" {
		taskID = jobID
	}
	return Identity{JobID: jobID, TaskID: taskID}
}

// IsZero returns true if the identity carries no handle at all.
func (i Identity) IsZero() bool {
	return i.JobID == "" && i.TaskID == ""
}

// Matches reports whether a record's job id belongs to this identity.
func (i Identity) Matches(jobID string) bool {
	if jobID == "" {
		return false
	}
	return jobID == i.JobID || jobID == i.TaskID
}
