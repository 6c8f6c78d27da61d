package ui

import (
	"fmt"
	"strings"

	"github.com/streampanel/panelctl/internal/formatter"
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/wizard"
)

// View renders the UI for the session's current step.
func (m *Model) View() string {
	if m.picking {
		return m.matchList.View()
	}

	var b strings.Builder
	b.WriteString(m.renderBreadcrumb())
	b.WriteString("\n")

	if m.session.OnStep(wizard.StepResults) {
		b.WriteString(m.renderResults())
	} else {
		b.WriteString(m.renderRows())
	}

	if m.statusMsg != "" {
		b.WriteString("\n" + m.statusMsg + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

// renderBreadcrumb draws the step plan with the current step highlighted.
func (m *Model) renderBreadcrumb() string {
	current := m.session.Current()
	parts := make([]string, 0, len(m.session.Steps()))
	for _, step := range m.session.Steps() {
		label := fmt.Sprintf("%s %s", step.Icon, step.Label)
		if step.ID == current.ID {
			label = styles.title.Render(label)
		} else {
			label = styles.dim.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, styles.dim.Render(" → ")) + "\n"
}

func (m *Model) renderRows() string {
	var b strings.Builder
	for i, row := range m.rows {
		prefix := "  "
		if i == m.cursor {
			prefix = styles.cursor.Render("▸ ")
		}

		switch row.kind {
		case fieldText:
			b.WriteString(fmt.Sprintf("%s%s: %s\n", prefix, row.label, row.input.View()))
		case fieldToggle:
			b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, row.display(), row.label))
		case fieldChoice:
			b.WriteString(fmt.Sprintf("%s%s: %s\n", prefix, row.label, styles.warn.Render(row.display())))
		case fieldAction:
			label := row.label
			if i == m.cursor {
				label = styles.ok.Render(label)
			}
			b.WriteString(fmt.Sprintf("%s%s\n", prefix, label))
		}
	}
	return b.String()
}

// renderResults shows live sub-job progress while the submission runs
// and the full summary once it settles.
func (m *Model) renderResults() string {
	var b strings.Builder

	if !m.finished {
		b.WriteString(styles.title.Render("Provisioning..."))
		b.WriteString("\n")
		if jobs, ok := m.progress.Data.(models.JobSet); ok {
			b.WriteString(formatter.JobLines(jobs))
		}
		if m.progress.Message != "" {
			b.WriteString(m.progress.Message + "\n")
		}
		b.WriteString(styles.dim.Render("quitting keeps the job running; the result is reported when it settles") + "\n")
		return b.String()
	}

	if m.result != nil {
		b.WriteString(formatter.JobSummary(m.result))
	}
	if m.submitErr != nil {
		b.WriteString(styles.err.Render(m.submitErr.Error()) + "\n")
	}
	b.WriteString("\n" + styles.help.Render("press q to close"))
	return b.String()
}
