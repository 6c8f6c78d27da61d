package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/streampanel/panelctl/internal/formatter"
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/shared"
	"github.com/streampanel/panelctl/internal/tasks"
	"github.com/streampanel/panelctl/internal/ui"
	"github.com/streampanel/panelctl/internal/wizard"
	"github.com/urfave/cli/v3"
)

// Wizard launches the interactive provisioning wizard TUI.
//
// If the operator quits while a submission is in flight, the process
// stays alive until the job settles and the result is printed to
// stdout instead of the closed modal.
func (r *Runner) Wizard(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend not configured, run setup panel first", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: provisioning engine not initialized", shared.ErrServiceUnavailable)
	}

	mode, err := parseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	userID := cmd.String("user-id")
	if mode != wizard.ModeCreate && userID == "" {
		return fmt.Errorf("%w: --user-id is required for mode %v", shared.ErrMissingArgument, mode)
	}

	lookups, err := r.loadLookups(ctx, cmd.Bool("offline"))
	if err != nil {
		return err
	}

	session := wizard.NewSession(mode, lookups)
	session.UserID = userID
	session.ServiceRequestID = cmd.String("service-request")

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/panelctl-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	reporter := r.newReporter()

	model := ui.NewModel(ctx, session, r.backend, r.engine, reporter)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	// A detached submission keeps running after the modal closes. Wait
	// for it to settle so the reporter's fallback fires before exit.
	if model.SubmitStarted() {
		<-model.Done()
	}

	return nil
}

// newReporter builds the result reporter for a wizard run. The notify
// hook is the fallback path: it prints the settled job summary when the
// modal closed before the result arrived.
func (r *Runner) newReporter() *tasks.Reporter {
	notify := func(result *models.JobResult) {
		r.writePlainln("%v", formatter.JobSummary(result))
	}
	refresh := func() {
		r.logger.Info("provisioning job settled")
	}
	return tasks.NewReporter(notify, refresh)
}

// loadLookups fetches reference data from the backend and refreshes the
// local cache, falling back to the cache when the backend is down. With
// offline set the cache is used directly.
func (r *Runner) loadLookups(ctx context.Context, offline bool) (*models.Lookups, error) {
	repo, db, repoErr := r.openRepository()
	if repoErr != nil {
		r.logger.Warn("lookup cache unavailable", "error", repoErr)
	} else {
		defer db.Close()
	}

	if offline {
		if repoErr != nil {
			return nil, repoErr
		}
		return repo.Load()
	}

	if r.source == nil {
		return nil, fmt.Errorf("%w: lookup source not initialized", shared.ErrServiceUnavailable)
	}

	lookups, err := r.source.FetchLookups(ctx)
	if err != nil {
		if repoErr == nil {
			r.logger.Warn("backend lookup fetch failed, using cache", "error", err)
			return repo.Load()
		}
		return nil, fmt.Errorf("failed to fetch lookups: %w", err)
	}

	if repoErr == nil {
		if err := repo.Replace(lookups); err != nil {
			r.logger.Warn("failed to refresh lookup cache", "error", err)
		}
	}

	return lookups, nil
}

func parseMode(s string) (wizard.Mode, error) {
	switch s {
	case "create", "":
		return wizard.ModeCreate, nil
	case "add_plex", "add-plex":
		return wizard.ModeAddPlex, nil
	case "add_iptv", "add-iptv":
		return wizard.ModeAddIPTV, nil
	default:
		return wizard.ModeCreate, fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidArgument, s)
	}
}
