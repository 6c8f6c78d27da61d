package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/shared"
	"github.com/streampanel/panelctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AuditRun exports per-user access and activity reports for Plex servers.
func (r *Runner) AuditRun(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: provisioning engine not initialized", shared.ErrServiceUnavailable)
	}

	lookups, err := r.loadLookups(ctx, false)
	if err != nil {
		return err
	}

	servers := lookups.Servers
	if filter := cmd.String("servers"); filter != "" {
		servers = filterServers(lookups, filter)
		if len(servers) == 0 {
			return fmt.Errorf("%w: no servers match %q", shared.ErrInvalidArgument, filter)
		}
	}
	if len(servers) == 0 {
		return fmt.Errorf("%w: no servers in lookups, run cache refresh", shared.ErrMissingArgument)
	}

	opts := tasks.AuditOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Audit.NumWorkers
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Audit.RateLimit
	}
	if opts.OutputDir == "" {
		opts.OutputDir = r.config.Audit.OutputDir
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.RunAudit(ctx, progress, servers, opts)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	r.writePlainHeader("Audit export complete")
	r.writePlain("Servers:  %d (%d ok, %d failed)\n", result.TotalServers, result.Successful, result.Failed)
	r.writePlain("Output:   %v\n", result.OutputDirectory)
	r.writePlain("Manifest: %v\n", result.ManifestPath)
	for _, sr := range result.Results {
		if sr.Success {
			r.writePlain("  ✓ %v (%d users)\n", sr.ServerName, sr.Users)
		} else {
			r.writePlain("  ✗ %v: %v\n", sr.ServerName, sr.Error)
		}
	}

	return nil
}

func filterServers(lookups *models.Lookups, filter string) []models.PlexServer {
	var out []models.PlexServer
	for _, id := range strings.Split(filter, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if srv := lookups.Server(id); srv != nil {
			out = append(out, *srv)
		}
	}
	return out
}
