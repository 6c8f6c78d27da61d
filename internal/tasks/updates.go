package tasks

import (
	"fmt"

	"github.com/streampanel/panelctl/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Submit Phase = iota
	Poll
	Settle
	Abandon
	AuditFetch
	AuditWrite
)

func (p Phase) String() string {
	switch p {
	case Submit:
		return "submit"
	case Poll:
		return "poll"
	case Settle:
		return "settle"
	case Abandon:
		return "abandon"
	case AuditFetch:
		return "audit_fetch"
	case AuditWrite:
		return "audit_write"
	default:
		return ""
	}
}

func submitUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    1,
		Total:   1,
		Message: "Submitting provisioning request...",
	}
}

func submitFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Submission failed: %v", err),
	}
}

func acceptedUpdate(jobID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Job %s accepted, polling for status...", jobID),
		Data:    jobID,
	}
}

// Updates carry a copied sub-job set, never the live result: the
// engine goroutine keeps merging poll responses into it while the UI
// goroutine reads the update.
func pollUpdate(attempt, total int, result *models.JobResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Poll,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", attempt, total, result.Overall()),
		Data:    result.Snapshot(),
	}
}

func pollRetryUpdate(attempt, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Poll,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] status check failed, retrying: %v", attempt, total, err),
	}
}

func settledUpdate(result *models.JobResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Settle,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Provisioning settled: %s", result.Overall()),
		Data:    result.Snapshot(),
	}
}

func abandonedUpdate(result *models.JobResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Abandon,
		Step:    1,
		Total:   1,
		Message: "Poll budget exhausted, job outcome unknown",
		Data:    result.Snapshot(),
	}
}

func auditFetchUpdate(step, total int, serverName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AuditFetch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching users on %s...", step, total, serverName),
	}
}

func auditWrittenUpdate(step, total int, serverName string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AuditWrite,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, serverName, filesCount),
	}
}

func auditFailedUpdate(step, total int, serverName string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AuditWrite,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, serverName, err),
	}
}
