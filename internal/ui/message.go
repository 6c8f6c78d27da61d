package ui

import (
	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/tasks"
)

// accessCheckedMsg carries the result of a Plex access check.
type accessCheckedMsg struct {
	result *services.AccessCheckResult
	err    error
}

// panelSearchedMsg carries the result of a cross-panel username search.
type panelSearchedMsg struct {
	result *services.PanelSearchResult
	err    error
}

// editorCheckedMsg carries the resolved link target for a selected
// panel-user match. editorUserID is empty when no editor-side account
// exists for the match.
type editorCheckedMsg struct {
	match        services.PanelUserMatch
	editorUserID string
	err          error
}

// progressUpdateMsg relays one engine progress update to the view.
type progressUpdateMsg tasks.ProgressUpdate

// submitDoneMsg signals that the submission goroutine finished.
type submitDoneMsg struct {
	result *models.JobResult
	err    error
}
