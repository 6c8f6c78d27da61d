// package formatter renders audit exports and provisioning summaries
// to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/shared"
)

// AuditToCSV converts server audit rows to CSV with columns: Email, Username, UserID, Libraries, LastSeen, DaysIdle, Status
func AuditToCSV(rows []services.AuditRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Email", "Username", "UserID", "Libraries", "LastSeen", "DaysIdle", "Status"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Email,
			row.Username,
			row.UserID,
			libraryList(row),
			row.LastSeen,
			strconv.Itoa(row.DaysIdle),
			auditStatus(row),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// AuditToMarkdown converts server audit rows to a Markdown table.
func AuditToMarkdown(serverName string, rows []services.AuditRow) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", serverName))
	buf.WriteString(fmt.Sprintf("**Users**: %d\n\n", len(rows)))

	buf.WriteString("| Email | Username | Libraries | Last Seen | Idle (days) | Status |\n")
	buf.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
			row.Email, row.Username, libraryList(row), row.LastSeen, row.DaysIdle, auditStatus(row)))
	}

	return buf.Bytes(), nil
}

// AuditToText converts server audit rows to plain text.
func AuditToText(serverName string, rows []services.AuditRow) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Server: %s\n", serverName))
	buf.WriteString(fmt.Sprintf("Users: %d\n\n", len(rows)))

	for i, row := range rows {
		buf.WriteString(fmt.Sprintf("%d. %s (%s) - %s, last seen %s\n",
			i+1, row.Email, row.Username, auditStatus(row), lastSeenOrNever(row)))
	}

	return buf.Bytes(), nil
}

func libraryList(row services.AuditRow) string {
	if row.AllLibraries {
		return "all"
	}
	return strings.Join(row.Libraries, "; ")
}

func auditStatus(row services.AuditRow) string {
	if row.Pending {
		return "pending_invite"
	}
	return "active"
}

func lastSeenOrNever(row services.AuditRow) string {
	if row.LastSeen == "" {
		return "never"
	}
	return row.LastSeen
}

// WriteAuditCSV writes audit rows as CSV and returns the written path.
func WriteAuditCSV(rows []services.AuditRow, path string) (string, error) {
	data, err := AuditToCSV(rows)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// WriteAuditMarkdown writes audit rows as Markdown and returns the written path.
func WriteAuditMarkdown(serverName string, rows []services.AuditRow, path string) (string, error) {
	data, err := AuditToMarkdown(serverName, rows)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return path, nil
}

// WriteAuditText writes audit rows as plain text and returns the written path.
func WriteAuditText(serverName string, rows []services.AuditRow, path string) (string, error) {
	data, err := AuditToText(serverName, rows)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteAuditJSON writes audit rows as indented JSON and returns the written path.
func WriteAuditJSON(rows []services.AuditRow, path string) (string, error) {
	data, err := shared.MarshalJSON(rows, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

// AuditManifestEntry summarizes one server's export in the manifest.
type AuditManifestEntry struct {
	ServerID   string   `json:"server_id"`
	ServerName string   `json:"server_name"`
	Users      int      `json:"users"`
	Success    bool     `json:"success"`
	Files      []string `json:"files,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// AuditManifest summarizes a full audit export run.
type AuditManifest struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Format       string               `json:"format"`
	TotalServers int                  `json:"total_servers"`
	Successful   int                  `json:"successful"`
	Failed       int                  `json:"failed"`
	Entries      []AuditManifestEntry `json:"entries"`
}

// WriteAuditManifest writes the manifest summarizing an audit export run.
func WriteAuditManifest(manifest *AuditManifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// StatusGlyph returns the display glyph for a sub-job status.
func StatusGlyph(status models.JobStatus) string {
	switch status {
	case models.JobCompleted:
		return "✓"
	case models.JobError:
		return "✗"
	case models.JobProcessing:
		return "…"
	case models.JobUnknown:
		return "?"
	default:
		return "·"
	}
}

// JobLines renders one line per participating sub-job, sorted by name
// so the output is stable. Used on its own for the live view while a
// submission is still polling.
func JobLines(jobs models.JobSet) string {
	var buf bytes.Buffer

	result := models.JobResult{Jobs: jobs}
	active := result.Active()
	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		job := active[name]
		line := fmt.Sprintf("%s %s: %s", StatusGlyph(job.Status), name, job.Status)
		if job.Message != "" {
			line += " - " + job.Message
		}
		buf.WriteString(line + "\n")
	}

	return buf.String()
}

// JobSummary renders a provisioning result as a multi-line, human
// readable summary: one line per participating sub-job, then the
// composite outcome.
func JobSummary(result *models.JobResult) string {
	var buf bytes.Buffer

	buf.WriteString(JobLines(result.Jobs))

	switch result.Overall() {
	case models.JobCompleted:
		buf.WriteString("Provisioning completed successfully")
	case models.JobError:
		buf.WriteString("Provisioning finished with errors")
	case models.JobUnknown:
		buf.WriteString("Provisioning outcome unknown; check the panel")
	case models.JobProcessing:
		buf.WriteString("Provisioning still in progress")
	default:
		buf.WriteString("Nothing was provisioned")
	}
	if result.UserID != "" {
		buf.WriteString(fmt.Sprintf(" (user %s)", result.UserID))
	}
	buf.WriteString("\n")

	return buf.String()
}
