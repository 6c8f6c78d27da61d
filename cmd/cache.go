package main

import (
	"context"
	"fmt"
	"time"

	"github.com/streampanel/panelctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheRefresh fetches lookups from the backend and replaces the local cache.
func (r *Runner) CacheRefresh(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil {
		return fmt.Errorf("%w: backend not configured", shared.ErrServiceUnavailable)
	}

	repo, db, err := r.openRepository()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("fetching lookups from backend")

	lookups, err := r.source.FetchLookups(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch lookups: %w", err)
	}

	if err := repo.Replace(lookups); err != nil {
		return fmt.Errorf("failed to store lookups: %w", err)
	}

	r.writePlainln("Cached %d owners, %d packages, %d servers, %d panels, %d templates",
		len(lookups.Owners), len(lookups.Packages), len(lookups.Servers), len(lookups.Panels), len(lookups.Templates))

	return nil
}

// CacheShow prints cached lookup counts and when they were fetched.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openRepository()
	if err != nil {
		return err
	}
	defer db.Close()

	lookups, err := repo.Load()
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}

	fetchedAt, err := repo.FetchedAt()
	if err != nil {
		r.logger.Warn("cache freshness unavailable", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"fetched_at": fetchedAt,
			"owners":     len(lookups.Owners),
			"tags":       len(lookups.Tags),
			"packages":   len(lookups.Packages),
			"servers":    len(lookups.Servers),
			"panels":     len(lookups.Panels),
			"templates":  len(lookups.Templates),
		}, true)
	}

	r.writePlainHeader("Lookup cache")
	if fetchedAt.IsZero() {
		r.writePlain("Fetched: never\n")
	} else {
		r.writePlain("Fetched: %v (%v ago)\n", fetchedAt.Format(time.RFC3339), time.Since(fetchedAt).Round(time.Second))
	}
	r.writePlain("Owners:    %d\n", len(lookups.Owners))
	r.writePlain("Tags:      %d\n", len(lookups.Tags))
	r.writePlain("Packages:  %d\n", len(lookups.Packages))
	r.writePlain("Servers:   %d\n", len(lookups.Servers))
	r.writePlain("Panels:    %d\n", len(lookups.Panels))
	r.writePlain("Templates: %d\n", len(lookups.Templates))

	return nil
}
