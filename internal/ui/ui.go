package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/tasks"
	"github.com/streampanel/panelctl/internal/wizard"
)

// Model represents the TUI application state for one wizard session.
type Model struct {
	ctx      context.Context
	session  *wizard.Session
	backend  services.Provisioner
	engine   *tasks.ProvisionEngine
	reporter *tasks.Reporter

	width  int
	height int

	rows      []fieldRow
	cursor    int
	statusMsg string

	// panel-user match picker overlay
	picking   bool
	matchList list.Model

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *models.JobResult
	submitErr    error
	started      bool
	finished     bool
	done         chan struct{}

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model for the given session and dependencies.
func NewModel(ctx context.Context, session *wizard.Session, backend services.Provisioner, engine *tasks.ProvisionEngine, reporter *tasks.Reporter) *Model {
	if session.Lookups == nil {
		session.Lookups = &models.Lookups{}
	}
	if reporter == nil {
		reporter = tasks.NewReporter(nil, nil)
	}
	m := &Model{
		ctx:      ctx,
		session:  session,
		backend:  backend,
		engine:   engine,
		reporter: reporter,
		done:     make(chan struct{}),
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.rebuildRows()
	return m
}

// Done is closed once a started submission has fully settled. The CLI
// runner blocks on it after the program exits so a detached job is
// never killed by process teardown.
func (m *Model) Done() <-chan struct{} { return m.done }

// SubmitStarted reports whether a submission goroutine was launched.
func (m *Model) SubmitStarted() bool { return m.started }

// Init starts the cursor blink for text rows.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.picking {
			m.matchList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case accessCheckedMsg:
		if msg.err != nil {
			m.statusMsg = styles.err.Render("access check failed: " + msg.err.Error())
			return m, nil
		}
		m.session.Form.ApplyAccessCheck(msg.result)
		if msg.result.Found {
			m.statusMsg = styles.ok.Render("existing access found and pre-selected")
		} else {
			m.statusMsg = styles.dim.Render("no existing access for this email")
		}
		m.rebuildRows()
		return m, nil

	case panelSearchedMsg:
		if msg.err != nil {
			m.statusMsg = styles.err.Render("search failed: " + msg.err.Error())
			return m, nil
		}
		if !msg.result.Found || len(msg.result.Results) == 0 {
			m.statusMsg = styles.dim.Render("no existing panel account; a new one will be created")
			return m, nil
		}
		items := make([]list.Item, len(msg.result.Results))
		for i, match := range msg.result.Results {
			items[i] = matchItem{match: match}
		}
		m.matchList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.matchList.Title = "Existing panel accounts"
		m.picking = true
		return m, nil

	case editorCheckedMsg:
		m.picking = false
		if msg.err != nil {
			m.statusMsg = styles.err.Render("editor lookup failed: " + msg.err.Error())
			return m, nil
		}
		m.session.Form.LinkPanelUser(msg.match, msg.editorUserID)
		if msg.editorUserID != "" {
			m.statusMsg = styles.ok.Render("linked; editor account already exists")
		} else {
			m.statusMsg = styles.ok.Render("linked to existing panel account")
		}
		m.rebuildRows()
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case submitDoneMsg:
		m.result = msg.result
		m.submitErr = msg.err
		m.finished = true
		m.session.FinishSubmit()
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	if m.picking {
		var cmd tea.Cmd
		m.matchList, cmd = m.matchList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, m.quit()
	}

	if m.picking {
		return m.handlePickerKeys(msg)
	}

	if m.session.OnStep(wizard.StepResults) {
		return m.handleResultsKeys(msg)
	}

	if key.Matches(msg, m.keys.back) {
		if err := m.session.Previous(); err != nil {
			return m, m.quit()
		}
		m.statusMsg = ""
		m.cursor = 0
		m.rebuildRows()
		return m, nil
	}

	if len(m.rows) == 0 {
		return m, nil
	}
	row := &m.rows[m.cursor]

	// Vim-style j/k only navigate off text rows, where they would
	// otherwise be swallowed as input.
	switch msg.String() {
	case "up":
		m.moveCursor(-1)
		return m, nil
	case "down":
		m.moveCursor(1)
		return m, nil
	case "k":
		if row.kind != fieldText {
			m.moveCursor(-1)
			return m, nil
		}
	case "j":
		if row.kind != fieldText {
			m.moveCursor(1)
			return m, nil
		}
	}

	if key.Matches(msg, m.keys.enter) {
		if row.kind == fieldText {
			m.moveCursor(1)
			return m, nil
		}
		if row.activate != nil {
			return m, row.activate()
		}
		return m, nil
	}

	if row.kind != fieldText && key.Matches(msg, m.keys.toggle) {
		if row.activate != nil {
			return m, row.activate()
		}
		return m, nil
	}

	// Remaining keystrokes feed the focused text input; the bound form
	// field is updated on every edit.
	if row.kind == fieldText {
		var cmd tea.Cmd
		row.input, cmd = row.input.Update(msg)
		if row.set != nil {
			row.set(row.input.Value())
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.picking = false
		m.statusMsg = ""
		return m, nil
	case "enter":
		selected := m.matchList.SelectedItem()
		if item, ok := selected.(matchItem); ok {
			return m, m.resolveLink(item.match)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.matchList, cmd = m.matchList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "enter":
		return m, m.quit()
	}
	return m, nil
}

// quit leaves the program. A submission still in flight is detached,
// not cancelled: the engine goroutine keeps polling and the fallback
// reporter delivers the outcome.
func (m *Model) quit() tea.Cmd {
	if m.started && !m.finished {
		m.reporter.Detach()
		m.session.Close()
	}
	return tea.Quit
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.syncFocus()
}

// syncFocus focuses the selected text input and blurs the rest.
func (m *Model) syncFocus() {
	for i := range m.rows {
		if m.rows[i].kind != fieldText {
			continue
		}
		if i == m.cursor {
			m.rows[i].input.Focus()
		} else {
			m.rows[i].input.Blur()
		}
	}
}

// advance validates the current step and moves forward.
func (m *Model) advance() tea.Cmd {
	if err := m.session.Next(); err != nil {
		m.statusMsg = styles.err.Render(err.Error())
		return nil
	}
	m.statusMsg = ""
	m.cursor = 0
	m.rebuildRows()
	return nil
}

func (m *Model) checkAccess() tea.Cmd {
	email := m.session.Form.Plex.Email
	if email == "" {
		m.statusMsg = styles.warn.Render("enter a Plex email first")
		return nil
	}
	m.statusMsg = styles.dim.Render("checking access...")
	return func() tea.Msg {
		result, err := m.backend.CheckAccess(m.ctx, email)
		return accessCheckedMsg{result: result, err: err}
	}
}

func (m *Model) searchPanelUser() tea.Cmd {
	username := m.session.Form.IPTV.Username
	if username == "" {
		m.statusMsg = styles.warn.Render("enter a username first")
		return nil
	}
	m.statusMsg = styles.dim.Render("searching panels...")
	return func() tea.Msg {
		result, err := m.backend.SearchPanelUser(m.ctx, username)
		return panelSearchedMsg{result: result, err: err}
	}
}

// resolveLink checks for an editor-side account before linking. Panels
// without an editor playlist skip the lookup entirely.
func (m *Model) resolveLink(match services.PanelUserMatch) tea.Cmd {
	panel := m.session.Lookups.Panel(match.PanelID)
	if panel == nil || !panel.HasEditor() {
		return func() tea.Msg {
			return editorCheckedMsg{match: match}
		}
	}
	return func() tea.Msg {
		result, err := m.backend.SearchEditorUser(m.ctx, match.PanelID, match.Username)
		if err != nil {
			return editorCheckedMsg{match: match, err: err}
		}
		var editorID string
		if result.Found {
			editorID = result.UserID
		}
		return editorCheckedMsg{match: match, editorUserID: editorID}
	}
}

// startSubmit gates the submission through the session and launches
// the engine on a background goroutine. The goroutine outlives the
// program if the operator quits; Done() signals full settlement.
func (m *Model) startSubmit() tea.Cmd {
	if err := m.session.BeginSubmit(); err != nil {
		m.statusMsg = styles.err.Render(err.Error())
		return nil
	}
	m.statusMsg = ""

	req := m.session.BuildRequest()
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.started = true
	ch := m.progressChan

	go func() {
		result, err := m.engine.Submit(m.ctx, ch, req)
		m.result = result
		m.submitErr = err
		close(ch)
		m.reporter.Report(result)
		close(m.done)
	}()

	m.rebuildRows()
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return submitDoneMsg{result: m.result, err: m.submitErr}
		}
		update, ok := <-ch
		if !ok {
			return submitDoneMsg{result: m.result, err: m.submitErr}
		}
		return progressUpdateMsg(update)
	}
}
