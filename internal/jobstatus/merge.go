package jobstatus

// Merge reconciles a previously observed status with a newly received one for
// callers that have no identity at hand. Records belong to the same job only
// when their job ids are equal.
func Merge(prev *Status, incoming Status) Status {
	return Identity{}.Merge(prev, incoming)
}

// Merge reconciles prev with incoming:
//
//   - without a previous status the incoming one is taken as is
//   - a terminal status of the same job is never replaced
//   - otherwise the incoming status wins, but while both are non-terminal
//     progress never drops below what was already shown
//
// A record is considered to be of the same job when its job id equals the
// previous one or is matched by the identity.
func (i Identity) Merge(prev *Status, incoming Status) Status {
	incoming = incoming.normalized()
	if prev == nil {
		return incoming
	}

	sameJob := incoming.JobID == prev.JobID || i.Matches(incoming.JobID)
	if !sameJob {
		return incoming
	}

	if prev.IsTerminal() {
		return *prev
	}

	if !incoming.IsTerminal() && prev.Progress > incoming.Progress {
		incoming.Progress = clampProgress(prev.Progress)
	}
	return incoming
}
