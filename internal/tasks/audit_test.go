package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/shared"
	tu "github.com/streampanel/panelctl/internal/testing"
)

func auditServers() []models.PlexServer {
	return []models.PlexServer{
		{ID: "srv-1", Name: "Thunder"},
		{ID: "srv-2", Name: "Storm"},
	}
}

func auditSource() *tu.MockLookupSource {
	return &tu.MockLookupSource{
		AuditRows: map[string][]services.AuditRow{
			"srv-1": {
				{Email: "alice@example.com", Username: "alice", Libraries: []string{"Movies"}},
				{Email: "bob@example.com", Username: "bob", AllLibraries: true, Pending: true},
			},
			"srv-2": {
				{Email: "carol@example.com", Username: "carol", Libraries: []string{"TV Shows"}},
			},
		},
	}
}

func TestRunAudit(t *testing.T) {
	formats := []string{"json", "csv", "markdown", "txt"}
	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			dir := t.TempDir()
			engine := NewProvisionEngine(nil, auditSource(), ProvisionOpts{})

			result, err := engine.RunAudit(context.Background(), nil, auditServers(), AuditOpts{
				Format:    format,
				OutputDir: dir,
			})
			if err != nil {
				t.Fatalf("RunAudit() error = %v", err)
			}

			if result.TotalServers != 2 || result.Successful != 2 || result.Failed != 0 {
				t.Errorf("result counts = %d/%d/%d", result.TotalServers, result.Successful, result.Failed)
			}
			for _, res := range result.Results {
				if len(res.Files) != 1 {
					t.Errorf("%s wrote %d files", res.ServerID, len(res.Files))
					continue
				}
				tu.AssertFileExists(t, res.Files[0])
			}
			tu.AssertFileExists(t, result.ManifestPath)
		})
	}
}

func TestRunAuditPartialFailure(t *testing.T) {
	dir := t.TempDir()

	// srv-2 errors at fetch time, srv-1 exports normally.
	engine := NewProvisionEngine(nil, &flakySource{inner: auditSource(), failID: "srv-2"}, ProvisionOpts{})

	result, err := engine.RunAudit(context.Background(), nil, auditServers(), AuditOpts{
		Format:    "json",
		OutputDir: dir,
	})
	if err != nil {
		t.Fatalf("RunAudit() error = %v", err)
	}
	if result.Successful != 1 || result.Failed != 1 {
		t.Errorf("successful/failed = %d/%d, want 1/1", result.Successful, result.Failed)
	}

	data := tu.MustReadFile(t, filepath.Join(dir, "audit_manifest.json"))
	var manifest struct {
		Entries []struct {
			ServerID string `json:"server_id"`
			Success  bool   `json:"success"`
			Error    string `json:"error"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(data), &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	for _, entry := range manifest.Entries {
		if entry.ServerID == "srv-2" && (entry.Success || entry.Error == "") {
			t.Errorf("failed server recorded as %+v", entry)
		}
	}
}

// flakySource fails FetchServerAudit for one server id.
type flakySource struct {
	inner  services.LookupSource
	failID string
}

func (f *flakySource) FetchLookups(ctx context.Context) (*models.Lookups, error) {
	return f.inner.FetchLookups(ctx)
}

func (f *flakySource) FetchServerAudit(ctx context.Context, serverID string) ([]services.AuditRow, error) {
	if serverID == f.failID {
		return nil, errors.New("server unreachable")
	}
	return f.inner.FetchServerAudit(ctx, serverID)
}

func TestRunAuditNilSource(t *testing.T) {
	engine := NewProvisionEngine(nil, nil, ProvisionOpts{})
	if _, err := engine.RunAudit(context.Background(), nil, auditServers(), AuditOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("RunAudit() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestRunAuditDefaultOutputDir(t *testing.T) {
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, t.TempDir())
	defer tu.MustChdir(t, wd)

	engine := NewProvisionEngine(nil, auditSource(), ProvisionOpts{})
	result, err := engine.RunAudit(context.Background(), nil, auditServers()[:1], AuditOpts{Format: "json"})
	if err != nil {
		t.Fatalf("RunAudit() error = %v", err)
	}
	if result.OutputDirectory == "" {
		t.Fatal("no output directory chosen")
	}
	info, err := os.Stat(result.OutputDirectory)
	if err != nil || !info.IsDir() {
		t.Errorf("output directory %q not created: %v", result.OutputDirectory, err)
	}
}
