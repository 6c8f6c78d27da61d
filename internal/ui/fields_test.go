package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/wizard"
)

func testLookups() *models.Lookups {
	return &models.Lookups{
		Servers: []models.PlexServer{
			{
				ID: "srv-1", Name: "Alpha", Healthy: true,
				Libraries: []models.Library{{ID: "lib-a", Title: "Movies"}},
			},
			{
				ID: "srv-2", Name: "Beta", Healthy: false,
				Libraries: []models.Library{{ID: "lib-b", Title: "TV"}},
			},
		},
		Panels: []models.Panel{{ID: "panel-1", Name: "North"}},
	}
}

func rowLabels(rows []fieldRow) []string {
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.label)
	}
	return labels
}

func TestPlexRowsMarkUnhealthyServers(t *testing.T) {
	session := wizard.NewSession(wizard.ModeAddPlex, testLookups())
	m := NewModel(context.Background(), session, nil, nil, nil)

	labels := strings.Join(rowLabels(m.plexRows()), "\n")

	if !strings.Contains(labels, "Beta (unhealthy) / TV") {
		t.Errorf("unhealthy server not marked:\n%s", labels)
	}
	if strings.Contains(labels, "Alpha (unhealthy)") {
		t.Errorf("healthy server marked unhealthy:\n%s", labels)
	}
}

func TestIPTVRowsLinkedUnlinkLabel(t *testing.T) {
	session := wizard.NewSession(wizard.ModeAddIPTV, testLookups())
	session.Form.LinkPanelUser(services.PanelUserMatch{
		PanelID:  "panel-1",
		UserID:   "u-9",
		Username: "jmoreau",
	}, "")
	m := NewModel(context.Background(), session, nil, nil, nil)

	labels := strings.Join(rowLabels(m.iptvRows()), "\n")

	if !strings.Contains(labels, "Linked to jmoreau") {
		t.Errorf("linked row missing:\n%s", labels)
	}
	if !strings.Contains(labels, "- unlink") {
		t.Errorf("unlink label missing:\n%s", labels)
	}
	if strings.Contains(labels, "Username") {
		t.Errorf("credential rows rendered for a linked user:\n%s", labels)
	}
}
