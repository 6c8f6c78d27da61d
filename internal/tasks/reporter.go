package tasks

import (
	"sync"

	"github.com/streampanel/panelctl/internal/models"
)

// Reporter routes a settled provisioning result to whoever should see
// it. While the wizard modal is attached it renders the result itself;
// if the operator closed the modal mid-run, the first settled report
// fires a one-shot fallback notification instead, so a long-running
// job is never silently lost. Subsequent reports for the same run are
// dropped either way.
//
// Safe for concurrent use; the engine driver and the UI goroutine both
// touch it.
type Reporter struct {
	mu       sync.Mutex
	attached bool
	done     bool

	notify  func(*models.JobResult)
	refresh func()
}

// NewReporter creates a Reporter in the attached state. notify is the
// detached fallback; refresh is invoked after any settled report so
// stale user lists are reloaded. Either hook may be nil.
func NewReporter(notify func(*models.JobResult), refresh func()) *Reporter {
	return &Reporter{
		attached: true,
		notify:   notify,
		refresh:  refresh,
	}
}

// Detach records that the modal closed while the run was still in
// flight. The run keeps going; its result is delivered via the
// fallback notification.
func (r *Reporter) Detach() {
	r.mu.Lock()
	r.attached = false
	r.mu.Unlock()
}

// Attached reports whether the modal still owns result rendering.
func (r *Reporter) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// Report delivers a settled result. Returns true when the caller (the
// attached modal) should render it; false when the reporter consumed
// it, either via the detached fallback or because the run already
// reported once.
func (r *Reporter) Report(result *models.JobResult) bool {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return false
	}
	r.done = true
	attached := r.attached
	notify := r.notify
	refresh := r.refresh
	r.mu.Unlock()

	if !attached && notify != nil {
		notify(result)
	}
	if refresh != nil {
		refresh()
	}
	return attached
}
