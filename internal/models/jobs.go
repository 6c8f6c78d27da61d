package models

// JobStatus enumerates the states of a provisioning sub-job.
//
// Transitions are monotonic: pending → processing → completed|error.
// Unknown is reserved for jobs abandoned mid-flight (poll budget
// exhausted); it never comes from the backend.
type JobStatus int

const (
	JobPending JobStatus = iota
	JobProcessing
	JobCompleted
	JobError
	JobUnknown
)

func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobProcessing:
		return "processing"
	case JobCompleted:
		return "completed"
	case JobError:
		return "error"
	case JobUnknown:
		return "unknown"
	default:
		return ""
	}
}

// ParseJobStatus maps a backend status string to a JobStatus.
// Unrecognized values parse as pending so a malformed poll response
// can never fabricate a terminal state.
func ParseJobStatus(s string) JobStatus {
	switch s {
	case "processing":
		return JobProcessing
	case "completed":
		return JobCompleted
	case "error", "failed":
		return JobError
	default:
		return JobPending
	}
}

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// rank orders statuses for monotonic merging.
func (s JobStatus) rank() int {
	switch s {
	case JobPending:
		return 0
	case JobProcessing:
		return 1
	default:
		return 2
	}
}

// SubJob tracks one service's provisioning outcome within a submission.
type SubJob struct {
	Status  JobStatus
	Message string
	Details string
}

// Merge applies next onto the sub-job, enforcing monotonicity: a job
// that reached a terminal state never regresses, and a pending update
// never overwrites progress. Returns true if the sub-job changed.
func (j *SubJob) Merge(next SubJob) bool {
	if j.Status.Terminal() {
		return false
	}
	if next.Status.rank() < j.Status.rank() {
		return false
	}
	if next.Status == j.Status && next.Message == j.Message && next.Details == j.Details {
		return false
	}
	j.Status = next.Status
	if next.Message != "" {
		j.Message = next.Message
	}
	if next.Details != "" {
		j.Details = next.Details
	}
	return true
}

// JobSet holds the per-service sub-jobs of one submission.
type JobSet struct {
	User   SubJob
	Plex   SubJob
	IPTV   SubJob
	Editor SubJob
}

// JobResult is the composite provisioning result for one wizard submission.
// Append-only during a submission: sub-jobs only ever advance.
type JobResult struct {
	JobID  string
	UserID string
	Jobs   JobSet
}

// Snapshot returns a copy of the sub-job set safe to hand to another
// goroutine while the owner keeps merging poll responses into r. JobSet
// holds only value fields, so the copy shares nothing with r.
func (r *JobResult) Snapshot() JobSet {
	return r.Jobs
}

// Active returns pointers to the sub-jobs that participate in this
// submission, keyed by display name. Sub-jobs still at pending with no
// message are considered inactive (their service was not selected).
func (r *JobResult) Active() map[string]*SubJob {
	active := make(map[string]*SubJob)
	for name, job := range map[string]*SubJob{
		"account":     &r.Jobs.User,
		"plex":        &r.Jobs.Plex,
		"iptv":        &r.Jobs.IPTV,
		"iptv editor": &r.Jobs.Editor,
	} {
		if job.Status != JobPending || job.Message != "" {
			active[name] = job
		}
	}
	return active
}

// Overall derives the composite status: error if any active sub-job
// errored, completed when every active sub-job completed, unknown if
// any was abandoned, processing otherwise.
func (r *JobResult) Overall() JobStatus {
	active := r.Active()
	if len(active) == 0 {
		return JobPending
	}

	anyErr, anyUnknown, allCompleted := false, false, true
	for _, job := range active {
		switch job.Status {
		case JobError:
			anyErr = true
			allCompleted = false
		case JobUnknown:
			anyUnknown = true
			allCompleted = false
		case JobCompleted:
		default:
			allCompleted = false
		}
	}

	switch {
	case anyErr:
		return JobError
	case anyUnknown:
		return JobUnknown
	case allCompleted:
		return JobCompleted
	default:
		return JobProcessing
	}
}

// Settled reports whether every sub-job that left pending has reached a
// terminal state, and at least one did leave pending. This is the
// polling loop's termination predicate: an all-still-pending response
// never counts as settled.
func (r *JobResult) Settled() bool {
	started := false
	for _, job := range []*SubJob{&r.Jobs.User, &r.Jobs.Plex, &r.Jobs.IPTV, &r.Jobs.Editor} {
		if job.Status == JobPending {
			continue
		}
		started = true
		if !job.Status.Terminal() {
			return false
		}
	}
	return started
}

// AbandonPending marks every non-terminal, non-pending sub-job as
// unknown. Called when the poll budget is exhausted so in-flight work
// is surfaced as unresolved rather than silently dropped.
func (r *JobResult) AbandonPending() {
	for _, job := range []*SubJob{&r.Jobs.User, &r.Jobs.Plex, &r.Jobs.IPTV, &r.Jobs.Editor} {
		if job.Status == JobProcessing {
			job.Status = JobUnknown
			if job.Message == "" {
				job.Message = "status unknown: backend never reported completion"
			}
		}
	}
}
