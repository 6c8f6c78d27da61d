// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
)

// MockProvisioner is a configurable test double for [services.Provisioner].
// Each hook, when nil, falls back to a benign zero response. StatusFn
// receives the 1-based poll attempt so tests can script status sequences.
type MockProvisioner struct {
	CheckAccessFn      func(ctx context.Context, email string) (*services.AccessCheckResult, error)
	SearchPanelUserFn  func(ctx context.Context, username string) (*services.PanelSearchResult, error)
	SearchEditorUserFn func(ctx context.Context, panelID, username string) (*services.EditorSearchResult, error)
	SubmitFn           func(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error)
	StatusFn           func(ctx context.Context, jobID string, attempt int) (*services.StatusResult, error)
	MarkProvisionedFn  func(ctx context.Context, requestID string) error

	SubmittedRequests []*services.ProvisionRequest
	StatusCalls       int
	MarkedRequests    []string
}

func (m *MockProvisioner) CheckAccess(ctx context.Context, email string) (*services.AccessCheckResult, error) {
	if m.CheckAccessFn != nil {
		return m.CheckAccessFn(ctx, email)
	}
	return &services.AccessCheckResult{}, nil
}

func (m *MockProvisioner) SearchPanelUser(ctx context.Context, username string) (*services.PanelSearchResult, error) {
	if m.SearchPanelUserFn != nil {
		return m.SearchPanelUserFn(ctx, username)
	}
	return &services.PanelSearchResult{}, nil
}

func (m *MockProvisioner) SearchEditorUser(ctx context.Context, panelID, username string) (*services.EditorSearchResult, error) {
	if m.SearchEditorUserFn != nil {
		return m.SearchEditorUserFn(ctx, panelID, username)
	}
	return &services.EditorSearchResult{}, nil
}

func (m *MockProvisioner) SubmitProvisioning(ctx context.Context, req *services.ProvisionRequest) (*services.SubmitResult, error) {
	m.SubmittedRequests = append(m.SubmittedRequests, req)
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, req)
	}
	return &services.SubmitResult{Success: true}, nil
}

func (m *MockProvisioner) GetProvisioningStatus(ctx context.Context, jobID string) (*services.StatusResult, error) {
	m.StatusCalls++
	if m.StatusFn != nil {
		return m.StatusFn(ctx, jobID, m.StatusCalls)
	}
	return &services.StatusResult{}, nil
}

func (m *MockProvisioner) MarkServiceRequestProvisioned(ctx context.Context, requestID string) error {
	m.MarkedRequests = append(m.MarkedRequests, requestID)
	if m.MarkProvisionedFn != nil {
		return m.MarkProvisionedFn(ctx, requestID)
	}
	return nil
}

// MockLookupSource is a test double for [services.LookupSource].
type MockLookupSource struct {
	Lookups   *models.Lookups
	LookupErr error

	AuditRows map[string][]services.AuditRow
	AuditErr  error
}

func (m *MockLookupSource) FetchLookups(ctx context.Context) (*models.Lookups, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if m.Lookups != nil {
		return m.Lookups, nil
	}
	return &models.Lookups{}, nil
}

func (m *MockLookupSource) FetchServerAudit(ctx context.Context, serverID string) ([]services.AuditRow, error) {
	if m.AuditErr != nil {
		return nil, m.AuditErr
	}
	return m.AuditRows[serverID], nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
