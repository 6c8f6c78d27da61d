package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/streampanel/panelctl/internal/formatter"
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/shared"
	"golang.org/x/time/rate"
)

// AuditOpts contains configuration for server audit exports.
type AuditOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: server_audit_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
}

// ServerAuditResult is the outcome of exporting one server's audit.
type ServerAuditResult struct {
	ServerID   string
	ServerName string
	Users      int
	Success    bool
	Files      []string
	Error      error
}

// AuditRunResult summarizes a full audit export run.
type AuditRunResult struct {
	TotalServers    int
	Successful      int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []ServerAuditResult
}

type auditJob struct {
	server models.PlexServer
	rows   []services.AuditRow
}

// RunAudit exports per-user access/activity for multiple servers
// concurrently with rate limiting and progress tracking.
//
// A worker pool writes the export files while a single producer fetches
// audit rows under the rate limiter, so the backend never sees bursts.
// Partial failures are recorded per server and never abort the run; a
// manifest file summarizing all outcomes is written last.
func (e *ProvisionEngine) RunAudit(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	servers []models.PlexServer,
	opts AuditOpts,
) (*AuditRunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: lookup source not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("server_audit_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &AuditRunResult{
		TotalServers:    len(servers),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ServerAuditResult, 0, len(servers)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan auditJob, len(servers))
	results := make(chan ServerAuditResult, len(servers))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.auditWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		for i, server := range servers {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			e.sendProgress(progress, auditFetchUpdate(i+1, len(servers), server.Name))

			rows, err := e.source.FetchServerAudit(ctx, server.ID)
			if err != nil {
				results <- ServerAuditResult{
					ServerID:   server.ID,
					ServerName: server.Name,
					Error:      fmt.Errorf("failed to fetch audit: %w", err),
				}
				continue
			}

			jobs <- auditJob{server: server, rows: rows}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(progress, auditWrittenUpdate(
				completed,
				len(servers),
				res.ServerName,
				len(res.Files),
			))
		} else {
			result.Failed++
			e.sendProgress(progress, auditFailedUpdate(
				completed,
				len(servers),
				res.ServerName,
				res.Error,
			))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "audit_manifest.json")
	if err := formatter.WriteAuditManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("audit completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// auditWorker is a worker goroutine that writes export files for
// fetched audit rows.
func (e *ProvisionEngine) auditWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan auditJob,
	results chan<- ServerAuditResult,
	opts AuditOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- writeServerAudit(job, opts)
	}
}

// writeServerAudit writes one server's audit rows in the requested format.
func writeServerAudit(j auditJob, opts AuditOpts) ServerAuditResult {
	result := ServerAuditResult{
		ServerID:   j.server.ID,
		ServerName: j.server.Name,
		Users:      len(j.rows),
		Files:      []string{},
	}

	var (
		path string
		err  error
	)
	switch opts.Format {
	case "csv":
		path, err = formatter.WriteAuditCSV(j.rows, filepath.Join(opts.OutputDir, j.server.ID+"_audit.csv"))
	case "markdown":
		path, err = formatter.WriteAuditMarkdown(j.server.Name, j.rows, filepath.Join(opts.OutputDir, j.server.ID+"_audit.md"))
	case "txt":
		path, err = formatter.WriteAuditText(j.server.Name, j.rows, filepath.Join(opts.OutputDir, j.server.ID+"_audit.txt"))
	case "json":
		fallthrough
	default:
		path, err = formatter.WriteAuditJSON(j.rows, filepath.Join(opts.OutputDir, j.server.ID+"_audit.json"))
	}

	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Files = []string{path}
	result.Success = true
	return result
}

func buildManifest(result *AuditRunResult, format string) *formatter.AuditManifest {
	manifest := &formatter.AuditManifest{
		GeneratedAt:  time.Now().UTC(),
		Format:       format,
		TotalServers: result.TotalServers,
		Successful:   result.Successful,
		Failed:       result.Failed,
		Entries:      make([]formatter.AuditManifestEntry, 0, len(result.Results)),
	}
	for _, res := range result.Results {
		entry := formatter.AuditManifestEntry{
			ServerID:   res.ServerID,
			ServerName: res.ServerName,
			Users:      res.Users,
			Success:    res.Success,
			Files:      res.Files,
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	return manifest
}
