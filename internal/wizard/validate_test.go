package wizard

import (
	"errors"
	"testing"

	"github.com/streampanel/panelctl/internal/shared"
)

// validForm returns a form that passes every step validator for the
// create flow with both services selected.
func validForm() *FormModel {
	form := NewFormModel(ModeCreate)
	form.Basic.Name = "Jean Moreau"
	form.Basic.Email = "jean@example.com"
	form.Services = ServiceSelection{Plex: true, IPTV: true}

	form.Plex.Email = "jean@example.com"
	form.Plex.Servers = []ServerSelection{{ServerID: "srv-1", LibraryIDs: []string{"lib-a"}}}
	form.Plex.PackageID = "pkg-plex"
	form.Plex.ExpirationDate = "2026-12-01"

	form.IPTV.PanelID = "panel-1"
	form.IPTV.Username = "jmoreau"
	form.IPTV.Email = "jean@example.com"
	form.IPTV.PackageID = "pkg-iptv"
	form.IPTV.SubscriptionPlanID = "plan-1"
	form.IPTV.ChannelGroupIDs = []string{"grp-1"}
	return form
}

func TestValidateStep(t *testing.T) {
	tests := []struct {
		name    string
		step    StepKey
		edit    func(*FormModel)
		wantErr bool
	}{
		{"valid basic", StepBasic, func(*FormModel) {}, false},
		{"name too short", StepBasic, func(f *FormModel) { f.Basic.Name = "J" }, true},
		{"missing email", StepBasic, func(f *FormModel) { f.Basic.Email = "" }, true},
		{"malformed email", StepBasic, func(f *FormModel) { f.Basic.Email = "not-an-address" }, true},

		{"valid services", StepServices, func(*FormModel) {}, false},
		{"no service selected", StepServices, func(f *FormModel) { f.Services = ServiceSelection{} }, true},

		{"valid plex", StepPlex, func(*FormModel) {}, false},
		{"plex no servers", StepPlex, func(f *FormModel) { f.Plex.Servers = nil }, true},
		{"plex server without libraries", StepPlex, func(f *FormModel) {
			f.Plex.Servers[0].LibraryIDs = nil
		}, true},
		{"plex missing package", StepPlex, func(f *FormModel) { f.Plex.PackageID = "" }, true},
		{"plex missing expiration", StepPlex, func(f *FormModel) { f.Plex.ExpirationDate = "" }, true},
		{"plex bad email", StepPlex, func(f *FormModel) { f.Plex.Email = "nope" }, true},

		{"valid iptv", StepIPTV, func(*FormModel) {}, false},
		{"iptv missing panel", StepIPTV, func(f *FormModel) { f.IPTV.PanelID = "" }, true},
		{"iptv missing plan", StepIPTV, func(f *FormModel) { f.IPTV.SubscriptionPlanID = "" }, true},
		{"iptv missing package", StepIPTV, func(f *FormModel) { f.IPTV.PackageID = "" }, true},
		{"iptv no channel groups", StepIPTV, func(f *FormModel) { f.IPTV.ChannelGroupIDs = nil }, true},
		{"iptv blank password auto-generates", StepIPTV, func(f *FormModel) { f.IPTV.Password = "" }, false},
		{"iptv short password", StepIPTV, func(f *FormModel) { f.IPTV.Password = "short" }, true},
		{"iptv long password", StepIPTV, func(f *FormModel) { f.IPTV.Password = "longenough" }, false},

		{"review always passes", StepReview, func(f *FormModel) { *f = *NewFormModel(ModeCreate) }, false},
		{"results always passes", StepResults, func(f *FormModel) { *f = *NewFormModel(ModeCreate) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.edit(form)
			err := ValidateStep(tt.step, form)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStep(%s) error = %v, wantErr %v", tt.step, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestValidateIPTVLinkedUser(t *testing.T) {
	link := func() *FormModel {
		form := validForm()
		form.IPTV.Username = ""
		form.IPTV.Email = ""
		form.IPTV.PackageID = ""
		form.IPTV.ChannelGroupIDs = nil
		form.IPTV.Link = LinkState{Kind: LinkedNoEditor, PanelUserID: "u-9"}
		return form
	}

	t.Run("linked path skips credential and package checks", func(t *testing.T) {
		if err := ValidateStep(StepIPTV, link()); err != nil {
			t.Errorf("ValidateStep() = %v, want nil", err)
		}
	})

	t.Run("editor creation still needs a channel group", func(t *testing.T) {
		form := link()
		form.IPTV.CreateEditor = true
		if err := ValidateStep(StepIPTV, form); err == nil {
			t.Error("ValidateStep() = nil, want channel group error")
		}
		form.IPTV.ChannelGroupIDs = []string{"grp-1"}
		if err := ValidateStep(StepIPTV, form); err != nil {
			t.Errorf("ValidateStep() = %v, want nil", err)
		}
	})

	t.Run("linked path still needs a panel and plan", func(t *testing.T) {
		form := link()
		form.IPTV.SubscriptionPlanID = ""
		if err := ValidateStep(StepIPTV, form); err == nil {
			t.Error("ValidateStep() = nil, want plan error")
		}
	})
}
