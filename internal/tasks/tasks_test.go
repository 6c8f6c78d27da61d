package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/shared"
	tu "github.com/streampanel/panelctl/internal/testing"
)

// fastOpts keeps the polling loop test-speed.
func fastOpts(maxPolls int) ProvisionOpts {
	return ProvisionOpts{
		PollInterval: time.Millisecond,
		MaxPolls:     maxPolls,
		RetryLimit:   3,
	}
}

func createRequest() *services.ProvisionRequest {
	return &services.ProvisionRequest{
		SessionID: "sess-1",
		Mode:      "create",
		Basic:     &services.BasicPayload{Name: "Jean Moreau", Email: "jean@example.com"},
		Plex:      &services.PlexPayload{Email: "jean@example.com"},
		IPTV:      &services.IPTVPayload{PanelID: "panel-1", CreateEditor: true},
	}
}

func entry(status, message string) *services.JobStatusEntry {
	return &services.JobStatusEntry{Status: status, Message: message}
}

func TestSubmitSync(t *testing.T) {
	t.Run("all services succeed", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{
					Success:      true,
					Message:      "provisioned",
					UserID:       "user-1",
					PlexResult:   &services.ServiceOutcome{Success: true, Message: "access granted"},
					IPTVResult:   &services.ServiceOutcome{Success: true, Message: "subscription created"},
					EditorResult: &services.ServiceOutcome{Success: true, Message: "editor created"},
				}, nil
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.UserID != "user-1" {
			t.Errorf("UserID = %q", result.UserID)
		}
		if got := result.Overall(); got != models.JobCompleted {
			t.Errorf("Overall() = %s, want completed", got)
		}
		if result.Jobs.Plex.Message != "access granted" {
			t.Errorf("plex message = %q", result.Jobs.Plex.Message)
		}
		if mock.StatusCalls != 0 {
			t.Errorf("sync path polled %d times", mock.StatusCalls)
		}
	})

	t.Run("per-service failure isolation", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{
					Success:    true,
					UserID:     "user-1",
					PlexResult: &services.ServiceOutcome{Success: true, Message: "access granted"},
					IPTVResult: &services.ServiceOutcome{Success: false, Message: "panel rejected the account"},
				}, nil
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.Jobs.Plex.Status != models.JobCompleted {
			t.Errorf("plex status = %s, want completed", result.Jobs.Plex.Status)
		}
		if result.Jobs.IPTV.Status != models.JobError {
			t.Errorf("iptv status = %s, want error", result.Jobs.IPTV.Status)
		}
		if got := result.Overall(); got != models.JobError {
			t.Errorf("Overall() = %s, want error", got)
		}
	})

	t.Run("transport error fails in-flight sub-jobs", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return nil, errors.New("connection refused")
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("Submit() error = %v, want ErrAPIRequest", err)
		}
		if result == nil {
			t.Fatal("Submit() returned nil result on failure")
		}
		for name, job := range result.Active() {
			if job.Status != models.JobError {
				t.Errorf("%s status = %s, want error", name, job.Status)
			}
		}
	})
}

func TestSubmitAsync(t *testing.T) {
	t.Run("polls until settled", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
			},
			StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
				if attempt < 3 {
					return &services.StatusResult{
						UserJob: entry("processing", "creating account"),
						PlexJob: entry("processing", ""),
					}, nil
				}
				return &services.StatusResult{
					UserID:    "user-9",
					UserJob:   entry("completed", "account created"),
					PlexJob:   entry("completed", "access granted"),
					IPTVJob:   entry("completed", "subscription created"),
					EditorJob: entry("completed", "editor created"),
				}, nil
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if mock.StatusCalls != 3 {
			t.Errorf("polled %d times, want 3", mock.StatusCalls)
		}
		if result.UserID != "user-9" {
			t.Errorf("UserID = %q", result.UserID)
		}
		if got := result.Overall(); got != models.JobCompleted {
			t.Errorf("Overall() = %s, want completed", got)
		}
	})

	t.Run("terminal states never regress across polls", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
			},
			StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
				switch attempt {
				case 1:
					return &services.StatusResult{
						PlexJob: entry("completed", "access granted"),
						IPTVJob: entry("processing", ""),
					}, nil
				case 2:
					// A buggy backend reporting plex back at pending.
					return &services.StatusResult{
						PlexJob: entry("pending", "queued"),
						IPTVJob: entry("processing", ""),
					}, nil
				default:
					return &services.StatusResult{
						UserJob:   entry("completed", ""),
						PlexJob:   entry("completed", "access granted"),
						IPTVJob:   entry("error", "panel rejected the account"),
						EditorJob: entry("completed", ""),
					}, nil
				}
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.Jobs.Plex.Status != models.JobCompleted {
			t.Errorf("plex status = %s after regression attempt", result.Jobs.Plex.Status)
		}
		if result.Jobs.IPTV.Status != models.JobError {
			t.Errorf("iptv status = %s, want error", result.Jobs.IPTV.Status)
		}
	})

	t.Run("poll ceiling abandons in-flight sub-jobs", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
			},
			StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
				return &services.StatusResult{
					UserJob: entry("processing", ""),
					PlexJob: entry("processing", ""),
				}, nil
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(5))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if !errors.Is(err, shared.ErrPollBudget) {
			t.Fatalf("Submit() error = %v, want ErrPollBudget", err)
		}
		if mock.StatusCalls != 5 {
			t.Errorf("polled %d times, want 5", mock.StatusCalls)
		}
		if result.Jobs.User.Status != models.JobUnknown {
			t.Errorf("user status = %s, want unknown", result.Jobs.User.Status)
		}
		if got := result.Overall(); got != models.JobUnknown {
			t.Errorf("Overall() = %s, want unknown", got)
		}
	})

	t.Run("transient poll failures are retried", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
			},
			StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
				if attempt <= 2 {
					return nil, errors.New("gateway timeout")
				}
				return &services.StatusResult{
					UserJob:   entry("completed", ""),
					PlexJob:   entry("completed", ""),
					IPTVJob:   entry("completed", ""),
					EditorJob: entry("completed", ""),
				}, nil
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if got := result.Overall(); got != models.JobCompleted {
			t.Errorf("Overall() = %s, want completed", got)
		}
	})

	t.Run("consecutive poll failures give up", func(t *testing.T) {
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
			},
			StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
				return nil, errors.New("gateway timeout")
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		result, err := engine.Submit(context.Background(), nil, createRequest())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("Submit() error = %v, want ErrAPIRequest", err)
		}
		if mock.StatusCalls != 3 {
			t.Errorf("polled %d times, want retry limit 3", mock.StatusCalls)
		}
		if got := result.Overall(); got != models.JobUnknown {
			t.Errorf("Overall() = %s, want unknown", got)
		}
	})

	t.Run("cancellation stops polling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		mock := &tu.MockProvisioner{
			SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
				return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
			},
			StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
				if attempt == 2 {
					cancel()
				}
				return &services.StatusResult{UserJob: entry("processing", "")}, nil
			},
		}
		engine := NewProvisionEngine(mock, nil, fastOpts(60))

		_, err := engine.Submit(ctx, nil, createRequest())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Submit() error = %v, want context.Canceled", err)
		}
	})
}

func TestSubmitMarksServiceRequest(t *testing.T) {
	tests := []struct {
		name       string
		requestID  string
		success    bool
		wantMarked int
	}{
		{"completed run marks the request", "req-5", true, 1},
		{"failed run leaves the request open", "req-5", false, 0},
		{"no linked request", "", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &tu.MockProvisioner{
				SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
					return &services.SubmitResult{Success: tt.success, Message: "done"}, nil
				},
			}
			engine := NewProvisionEngine(mock, nil, fastOpts(60))

			req := createRequest()
			req.ServiceRequestID = tt.requestID
			if _, err := engine.Submit(context.Background(), nil, req); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if len(mock.MarkedRequests) != tt.wantMarked {
				t.Errorf("marked %d requests, want %d", len(mock.MarkedRequests), tt.wantMarked)
			}
		})
	}
}

func TestSubmitProgressUpdates(t *testing.T) {
	mock := &tu.MockProvisioner{
		SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
			return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
		},
		StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
			return &services.StatusResult{
				UserJob:   entry("completed", ""),
				PlexJob:   entry("completed", ""),
				IPTVJob:   entry("completed", ""),
				EditorJob: entry("completed", ""),
			}, nil
		},
	}
	engine := NewProvisionEngine(mock, nil, fastOpts(60))

	progress := make(chan ProgressUpdate, 32)
	if _, err := engine.Submit(context.Background(), progress, createRequest()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	close(progress)

	seen := map[Phase]bool{}
	for update := range progress {
		seen[update.Phase] = true
		if update.Message == "" {
			t.Errorf("empty message for phase %s", update.Phase)
		}
	}
	for _, phase := range []Phase{Submit, Poll, Settle} {
		if !seen[phase] {
			t.Errorf("no update seen for phase %s", phase)
		}
	}
}

func TestSubmitProgressCarriesSnapshots(t *testing.T) {
	mock := &tu.MockProvisioner{
		SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
			return &services.SubmitResult{Success: true, JobID: "job-1"}, nil
		},
		StatusFn: func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error) {
			if attempt == 1 {
				return &services.StatusResult{
					UserJob: entry("processing", "creating account"),
					PlexJob: entry("processing", ""),
				}, nil
			}
			return &services.StatusResult{
				UserJob:   entry("completed", "account created"),
				PlexJob:   entry("completed", "access granted"),
				IPTVJob:   entry("completed", ""),
				EditorJob: entry("completed", ""),
			}, nil
		},
	}
	engine := NewProvisionEngine(mock, nil, fastOpts(60))

	progress := make(chan ProgressUpdate, 32)
	result, err := engine.Submit(context.Background(), progress, createRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	close(progress)

	var polls []models.JobSet
	for update := range progress {
		if update.Phase != Poll {
			continue
		}
		jobs, ok := update.Data.(models.JobSet)
		if !ok {
			t.Fatalf("poll update data = %T, want models.JobSet", update.Data)
		}
		polls = append(polls, jobs)
	}

	if len(polls) != 2 {
		t.Fatalf("saw %d poll snapshots, want 2", len(polls))
	}
	// The first snapshot keeps its at-the-time state even though the
	// engine merged later polls into the same result.
	if got := polls[0].User.Status; got != models.JobProcessing {
		t.Errorf("first snapshot user status = %s, want processing", got)
	}
	if got := polls[1].User.Status; got != models.JobCompleted {
		t.Errorf("second snapshot user status = %s, want completed", got)
	}
	if got := result.Jobs.User.Status; got != models.JobCompleted {
		t.Errorf("final user status = %s, want completed", got)
	}
}

func TestSubmitNilBackend(t *testing.T) {
	engine := NewProvisionEngine(nil, nil, fastOpts(60))
	if _, err := engine.Submit(context.Background(), nil, createRequest()); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("Submit() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestSubmitProgressNeverBlocks(t *testing.T) {
	mock := &tu.MockProvisioner{
		SubmitFn: func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
			return &services.SubmitResult{Success: true, Message: "done"}, nil
		},
	}
	engine := NewProvisionEngine(mock, nil, fastOpts(60))

	// Unbuffered channel with no reader: sends must be dropped, not block.
	progress := make(chan ProgressUpdate)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := engine.Submit(context.Background(), progress, createRequest()); err != nil {
			t.Errorf("Submit() error = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Submit() blocked on a full progress channel")
	}
}
