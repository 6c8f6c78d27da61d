package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/streampanel/panelctl/internal/services"
)

var _ list.Item = matchItem{}

// matchItem wraps [services.PanelUserMatch] to implement [list.Item].
type matchItem struct {
	match services.PanelUserMatch
}

func (i matchItem) FilterValue() string { return i.match.Username }
func (i matchItem) Title() string {
	return fmt.Sprintf("%s @ %s", i.match.Username, i.match.PanelName)
}
func (i matchItem) Description() string {
	desc := i.match.Email
	if i.match.ExpiresAt != "" {
		desc = fmt.Sprintf("%s • expires %s", desc, i.match.ExpiresAt)
	}
	if i.match.MaxConnections > 0 {
		desc = fmt.Sprintf("%s • %d connections", desc, i.match.MaxConnections)
	}
	return desc
}
