package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/wizard"
)

// fieldKind discriminates how a form row reacts to input.
type fieldKind int

const (
	fieldText   fieldKind = iota // free text via bubbles/textinput
	fieldToggle                  // boolean, flipped with space/enter
	fieldChoice                  // cycles through a fixed option set
	fieldAction                  // runs a command (continue, search, submit)
)

// fieldRow is one interactive line of the current step's form. Text
// rows write through to the session form on every keystroke so the
// form model stays the single source of truth.
type fieldRow struct {
	label    string
	kind     fieldKind
	input    textinput.Model
	set      func(string)   // fieldText
	display  func() string  // fieldToggle, fieldChoice
	activate func() tea.Cmd // fieldToggle, fieldChoice, fieldAction
}

func textRow(label, placeholder, value string, set func(string)) fieldRow {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.SetValue(value)
	return fieldRow{label: label, kind: fieldText, input: ti, set: set}
}

func toggleRow(label string, get func() bool, flip func()) fieldRow {
	return fieldRow{
		label: label,
		kind:  fieldToggle,
		display: func() string {
			if get() {
				return "[x]"
			}
			return "[ ]"
		},
		activate: func() tea.Cmd { flip(); return nil },
	}
}

func choiceRow(label string, display func() string, cycle func()) fieldRow {
	return fieldRow{
		label:    label,
		kind:     fieldChoice,
		display:  display,
		activate: func() tea.Cmd { cycle(); return nil },
	}
}

func actionRow(label string, run func() tea.Cmd) fieldRow {
	return fieldRow{label: label, kind: fieldAction, activate: run}
}

// rebuildRows regenerates the row list for the session's current step.
// Called after every navigation or collaborator response so the view
// always projects the latest form state.
func (m *Model) rebuildRows() {
	switch m.session.Current().Key {
	case wizard.StepBasic:
		m.rows = m.basicRows()
	case wizard.StepServices:
		m.rows = m.servicesRows()
	case wizard.StepPlex:
		m.rows = m.plexRows()
	case wizard.StepIPTV:
		m.rows = m.iptvRows()
	case wizard.StepReview:
		m.rows = m.reviewRows()
	default:
		m.rows = nil
	}

	if m.cursor >= len(m.rows) {
		m.cursor = 0
	}
	m.syncFocus()
}

func (m *Model) basicRows() []fieldRow {
	form := m.session.Form
	rows := []fieldRow{
		textRow("Name", "Full name", form.Basic.Name, func(v string) { form.Basic.Name = v }),
		textRow("Email", "user@example.com", form.Basic.Email, func(v string) { form.Basic.Email = v }),
		textRow("Notes", "", form.Basic.Notes, func(v string) { form.Basic.Notes = v }),
	}

	if owners := m.session.Lookups.Owners; len(owners) > 0 {
		rows = append(rows, choiceRow("Owner",
			func() string {
				for _, owner := range owners {
					if owner.ID == form.Basic.OwnerID {
						return owner.Name
					}
				}
				return "(none)"
			},
			func() { form.Basic.OwnerID = cycleOwner(owners, form.Basic.OwnerID) },
		))
	}

	rows = append(rows,
		toggleRow("Exclude from bulk emails",
			func() bool { return form.Basic.ExcludeFromBulkEmails },
			func() { form.Basic.ExcludeFromBulkEmails = !form.Basic.ExcludeFromBulkEmails }),
		actionRow("Continue →", m.advance),
	)
	return rows
}

// cycleOwner returns the next owner id after current, wrapping through
// an empty "(none)" slot.
func cycleOwner(owners []models.Owner, current string) string {
	if current == "" {
		return owners[0].ID
	}
	for i, owner := range owners {
		if owner.ID == current {
			if i+1 < len(owners) {
				return owners[i+1].ID
			}
			return ""
		}
	}
	return ""
}

func (m *Model) servicesRows() []fieldRow {
	form := m.session.Form
	return []fieldRow{
		toggleRow("🎬 Plex media access",
			func() bool { return form.Services.Plex },
			func() { form.Services.Plex = !form.Services.Plex }),
		toggleRow("📺 IPTV subscription",
			func() bool { return form.Services.IPTV },
			func() { form.Services.IPTV = !form.Services.IPTV }),
		actionRow("Continue →", m.advance),
	}
}

func (m *Model) plexRows() []fieldRow {
	form := m.session.Form
	rows := []fieldRow{
		textRow("Plex email", "user@example.com", form.Plex.Email, func(v string) { form.Plex.Email = v }),
		actionRow("Check existing access", m.checkAccess),
	}

	for _, server := range m.session.Lookups.Servers {
		server := server
		serverLabel := server.Name
		if !server.Healthy {
			serverLabel += " (unhealthy)"
		}
		for _, lib := range server.Libraries {
			lib := lib
			rows = append(rows, toggleRow(
				fmt.Sprintf("%s / %s", serverLabel, lib.Title),
				func() bool { return plexLibrarySelected(form, server.ID, lib.ID) },
				func() { form.Plex.ToggleLibrary(server.ID, lib.ID) },
			))
		}
	}

	packages := m.session.Lookups.PackagesFor(models.ServicePlex)
	if len(packages) > 0 {
		rows = append(rows, choiceRow("Package",
			func() string { return packageName(packages, form.Plex.PackageID) },
			func() {
				pkg := cyclePackage(packages, form.Plex.PackageID)
				form.Plex.PackageID = pkg.ID
				if pkg.DurationMonths > 0 {
					form.Plex.DurationMonths = pkg.DurationMonths
				}
			},
		))
	}

	rows = append(rows,
		textRow("Expiration date", "YYYY-MM-DD", form.Plex.ExpirationDate, func(v string) { form.Plex.ExpirationDate = v }),
		toggleRow("Send welcome email",
			func() bool { return form.Plex.SendWelcomeEmail },
			func() { form.Plex.SendWelcomeEmail = !form.Plex.SendWelcomeEmail }),
	)

	if templates := m.session.Lookups.Templates; len(templates) > 0 {
		rows = append(rows, choiceRow("Welcome template",
			func() string { return templateName(templates, form.Plex.WelcomeTemplateID) },
			func() { form.Plex.WelcomeTemplateID = cycleTemplate(templates, form.Plex.WelcomeTemplateID) },
		))
	}

	return append(rows, actionRow("Continue →", m.advance))
}

func plexLibrarySelected(form *wizard.FormModel, serverID, libraryID string) bool {
	sel := form.Plex.Server(serverID)
	if sel == nil {
		return false
	}
	for _, id := range sel.LibraryIDs {
		if id == libraryID {
			return true
		}
	}
	return false
}

func (m *Model) iptvRows() []fieldRow {
	form := m.session.Form
	panels := m.session.Lookups.Panels

	var rows []fieldRow
	if len(panels) > 0 {
		rows = append(rows, choiceRow("Panel",
			func() string { return panelName(panels, form.IPTV.PanelID) },
			func() { form.IPTV.PanelID = cyclePanel(panels, form.IPTV.PanelID) },
		))
	}

	if form.IPTV.Link.Kind.Linked() {
		link := form.IPTV.Link
		rows = append(rows,
			actionRow(fmt.Sprintf("Linked to %s (%s) - unlink", link.Username, link.Kind), func() tea.Cmd {
				form.ClearLink()
				m.rebuildRows()
				return nil
			}),
		)
	} else {
		rows = append(rows,
			textRow("Username", "", form.IPTV.Username, func(v string) { form.IPTV.Username = v }),
			actionRow("Search existing panel user", m.searchPanelUser),
			textRow("Password", "blank to auto-generate", form.IPTV.Password, func(v string) { form.IPTV.Password = v }),
			textRow("Email", "user@example.com", form.IPTV.Email, func(v string) { form.IPTV.Email = v }),
		)
	}

	packages := m.session.Lookups.PackagesFor(models.ServiceIPTV)
	if len(packages) > 0 && !form.IPTV.Link.Kind.Linked() {
		rows = append(rows, choiceRow("Package",
			func() string { return packageName(packages, form.IPTV.PackageID) },
			func() {
				pkg := cyclePackage(packages, form.IPTV.PackageID)
				form.IPTV.PackageID = pkg.ID
				if pkg.DurationMonths > 0 {
					form.IPTV.DurationMonths = pkg.DurationMonths
				}
			},
		))
	}

	rows = append(rows,
		textRow("Subscription plan", "plan id", form.IPTV.SubscriptionPlanID, func(v string) { form.IPTV.SubscriptionPlanID = v }),
		textRow("Channel groups", "comma-separated ids", strings.Join(form.IPTV.ChannelGroupIDs, ","), func(v string) {
			form.IPTV.ChannelGroupIDs = splitIDs(v)
		}),
		toggleRow("Trial account",
			func() bool { return form.IPTV.IsTrial },
			func() { form.IPTV.IsTrial = !form.IPTV.IsTrial }),
	)

	// Editor creation only applies to panels with a linked editor
	// playlist, and never when the match already has an editor account.
	if panel := m.session.Lookups.Panel(form.IPTV.PanelID); panel != nil && panel.HasEditor() &&
		form.IPTV.Link.Kind != wizard.LinkedWithEditor {
		rows = append(rows, toggleRow("Create editor account",
			func() bool { return form.IPTV.CreateEditor },
			func() { form.IPTV.CreateEditor = !form.IPTV.CreateEditor }))
	}

	rows = append(rows,
		textRow("Expiration date", "YYYY-MM-DD", form.IPTV.ExpirationDate, func(v string) { form.IPTV.ExpirationDate = v }),
		actionRow("Continue →", m.advance),
	)
	return rows
}

func splitIDs(v string) []string {
	var ids []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func (m *Model) reviewRows() []fieldRow {
	var rows []fieldRow
	for _, step := range m.session.Steps() {
		if step.Key == wizard.StepReview || step.Key == wizard.StepResults {
			continue
		}
		step := step
		rows = append(rows, actionRow(fmt.Sprintf("Edit %s %s", step.Icon, step.Label), func() tea.Cmd {
			if err := m.session.GoToStep(step.ID); err != nil {
				m.statusMsg = err.Error()
				return nil
			}
			m.statusMsg = ""
			m.rebuildRows()
			return nil
		}))
	}
	return append(rows, actionRow("🚀 Submit", m.startSubmit))
}

func packageName(packages []models.ServicePackage, id string) string {
	for _, pkg := range packages {
		if pkg.ID == id {
			return pkg.Name
		}
	}
	return "(select)"
}

func cyclePackage(packages []models.ServicePackage, current string) models.ServicePackage {
	for i, pkg := range packages {
		if pkg.ID == current {
			return packages[(i+1)%len(packages)]
		}
	}
	return packages[0]
}

func panelName(panels []models.Panel, id string) string {
	for _, panel := range panels {
		if panel.ID == id {
			return panel.Name
		}
	}
	return "(select)"
}

func cyclePanel(panels []models.Panel, current string) string {
	for i, panel := range panels {
		if panel.ID == current {
			return panels[(i+1)%len(panels)].ID
		}
	}
	return panels[0].ID
}

func templateName(templates []models.EmailTemplate, id string) string {
	for _, tpl := range templates {
		if tpl.ID == id {
			return tpl.Name
		}
	}
	return "(default)"
}

func cycleTemplate(templates []models.EmailTemplate, current string) string {
	if current == "" {
		return templates[0].ID
	}
	for i, tpl := range templates {
		if tpl.ID == current {
			if i+1 < len(templates) {
				return templates[i+1].ID
			}
			return ""
		}
	}
	return ""
}
