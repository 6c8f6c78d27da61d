// package tasks implements provisioning submissions and audit exports.
//
// The core abstraction is Engine, which orchestrates one wizard submission
// end to end: the network call, the bounded status polling loop, and the
// server audit export. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/shared"
)

// Engine defines the long-running operations the wizard and CLI consume.
type Engine interface {
	// Submit sends one composite provisioning request and drives it to a
	// settled result, polling when the backend goes async.
	Submit(ctx context.Context, progress chan<- ProgressUpdate, req *services.ProvisionRequest) (*models.JobResult, error)

	// RunAudit exports per-user access/activity for the given servers.
	RunAudit(ctx context.Context, progress chan<- ProgressUpdate, servers []models.PlexServer, opts AuditOpts) (*AuditRunResult, error)
}

// ProvisionOpts tunes the submission polling loop.
type ProvisionOpts struct {
	PollInterval time.Duration // Delay between status polls (default: 2s)
	MaxPolls     int           // Poll ceiling per submission (default: 60)
	RetryLimit   int           // Consecutive transport failures tolerated (default: 3)
}

func (o *ProvisionOpts) normalize() {
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = 60
	}
	if o.RetryLimit <= 0 {
		o.RetryLimit = 3
	}
}

// ProvisionEngine implements Engine against the panel backend.
type ProvisionEngine struct {
	backend services.Provisioner
	source  services.LookupSource
	opts    ProvisionOpts
}

// NewProvisionEngine creates a ProvisionEngine with the provided backend.
func NewProvisionEngine(backend services.Provisioner, source services.LookupSource, opts ProvisionOpts) *ProvisionEngine {
	opts.normalize()
	return &ProvisionEngine{
		backend: backend,
		source:  source,
		opts:    opts,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ProvisionEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Submit performs one provisioning submission end to end.
//
// The returned result is always non-nil once the request was attempted:
// on partial failure it carries whatever each sub-job reached. Sub-jobs
// only ever advance; a terminal state is never overwritten by a later
// poll response.
func (e *ProvisionEngine) Submit(ctx context.Context, progress chan<- ProgressUpdate, req *services.ProvisionRequest) (*models.JobResult, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	result := &models.JobResult{}
	markProcessing(result, req)

	e.sendProgress(progress, submitUpdate())

	res, err := e.backend.SubmitProvisioning(ctx, req)
	if err != nil {
		failAll(result, "submission failed")
		e.sendProgress(progress, submitFailedUpdate(err))
		return result, fmt.Errorf("%w: submission failed: %v", shared.ErrAPIRequest, err)
	}

	result.JobID = res.JobID
	result.UserID = res.UserID

	if res.JobID == "" {
		applySyncResult(result, res)
		e.sendProgress(progress, settledUpdate(result))
	} else {
		e.sendProgress(progress, acceptedUpdate(res.JobID))
		if err := e.poll(ctx, progress, result); err != nil {
			return result, err
		}
	}

	e.markRequestProvisioned(ctx, req, result)
	return result, nil
}

// markProcessing advances the sub-jobs that participate in the request.
// Sub-jobs for unselected services stay pending so they never appear in
// the result's active set.
func markProcessing(result *models.JobResult, req *services.ProvisionRequest) {
	processing := func(msg string) models.SubJob {
		return models.SubJob{Status: models.JobProcessing, Message: msg}
	}
	if req.Basic != nil {
		result.Jobs.User.Merge(processing("creating base account"))
	}
	if req.Plex != nil {
		msg := "granting Plex access"
		if req.Plex.SkipProvisioning {
			msg = "access unchanged, skipping grant"
		}
		result.Jobs.Plex.Merge(processing(msg))
	}
	if req.IPTV != nil {
		result.Jobs.IPTV.Merge(processing("provisioning IPTV subscription"))
		if req.IPTV.CreateEditor {
			result.Jobs.Editor.Merge(processing("creating editor account"))
		}
	}
}

// failAll errors every in-flight sub-job. Used when the submission
// itself never reached the backend.
func failAll(result *models.JobResult, msg string) {
	for _, job := range []*models.SubJob{
		&result.Jobs.User, &result.Jobs.Plex, &result.Jobs.IPTV, &result.Jobs.Editor,
	} {
		if job.Status == models.JobProcessing {
			job.Merge(models.SubJob{Status: models.JobError, Message: msg})
		}
	}
}

// applySyncResult resolves each sub-job from a synchronous response.
// Per-service outcomes are applied independently; a failed IPTV grant
// never masks a successful Plex one. Sub-jobs the response did not
// address inherit the composite outcome.
func applySyncResult(result *models.JobResult, res *services.SubmitResult) {
	applyOutcome(&result.Jobs.Plex, res.PlexResult)
	applyOutcome(&result.Jobs.IPTV, res.IPTVResult)
	applyOutcome(&result.Jobs.Editor, res.EditorResult)

	fallback := models.SubJob{Status: models.JobCompleted, Message: res.Message}
	if !res.Success {
		fallback.Status = models.JobError
	}
	for _, job := range []*models.SubJob{
		&result.Jobs.User, &result.Jobs.Plex, &result.Jobs.IPTV, &result.Jobs.Editor,
	} {
		if job.Status == models.JobProcessing {
			job.Merge(fallback)
		}
	}
}

func applyOutcome(job *models.SubJob, outcome *services.ServiceOutcome) {
	if outcome == nil {
		return
	}
	status := models.JobCompleted
	if !outcome.Success {
		status = models.JobError
	}
	job.Merge(models.SubJob{Status: status, Message: outcome.Message, Details: outcome.Details})
}

// poll drives an async submission to a settled result. Transport
// failures are retried up to RetryLimit consecutive times; the loop
// stops when every started sub-job reaches a terminal state or the
// poll ceiling is hit, whichever comes first.
func (e *ProvisionEngine) poll(ctx context.Context, progress chan<- ProgressUpdate, result *models.JobResult) error {
	retries := 0

	for attempt := 1; attempt <= e.opts.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			result.AbandonPending()
			return ctx.Err()
		case <-time.After(e.opts.PollInterval):
		}

		status, err := e.backend.GetProvisioningStatus(ctx, result.JobID)
		if err != nil {
			retries++
			e.sendProgress(progress, pollRetryUpdate(attempt, e.opts.MaxPolls, err))
			if retries >= e.opts.RetryLimit {
				result.AbandonPending()
				return fmt.Errorf("%w: %d consecutive status failures: %v", shared.ErrAPIRequest, retries, err)
			}
			continue
		}
		retries = 0

		result.Jobs.User.Merge(status.UserJob.SubJob())
		result.Jobs.Plex.Merge(status.PlexJob.SubJob())
		result.Jobs.IPTV.Merge(status.IPTVJob.SubJob())
		result.Jobs.Editor.Merge(status.EditorJob.SubJob())

		if status.UserID != "" {
			result.UserID = status.UserID
		}

		e.sendProgress(progress, pollUpdate(attempt, e.opts.MaxPolls, result))

		if result.Settled() {
			e.sendProgress(progress, settledUpdate(result))
			return nil
		}
	}

	result.AbandonPending()
	e.sendProgress(progress, abandonedUpdate(result))
	return fmt.Errorf("%w: job %s unresolved after %d polls", shared.ErrPollBudget, result.JobID, e.opts.MaxPolls)
}

// markRequestProvisioned flags a linked service request as fulfilled
// once the submission completed. Best-effort: a failure here never
// fails the submission.
func (e *ProvisionEngine) markRequestProvisioned(ctx context.Context, req *services.ProvisionRequest, result *models.JobResult) {
	if req.ServiceRequestID == "" || result.Overall() != models.JobCompleted {
		return
	}
	_ = e.backend.MarkServiceRequestProvisioned(ctx, req.ServiceRequestID)
}
