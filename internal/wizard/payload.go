package wizard

import "github.com/streampanel/panelctl/internal/services"

// BuildRequest assembles the composite provisioning request from the
// form. Only the selected services contribute payloads; everything is
// copied out of the form so later edits cannot race the submission.
func (s *Session) BuildRequest() *services.ProvisionRequest {
	form := s.Form
	req := &services.ProvisionRequest{
		SessionID:        s.ID,
		Mode:             s.Mode.String(),
		UserID:           s.UserID,
		ServiceRequestID: s.ServiceRequestID,
	}

	if s.Mode == ModeCreate {
		req.Basic = &services.BasicPayload{
			Name:                  form.Basic.Name,
			Email:                 form.Basic.Email,
			OwnerID:               form.Basic.OwnerID,
			Notes:                 form.Basic.Notes,
			TagIDs:                append([]string(nil), form.Basic.TagIDs...),
			ExcludeFromBulkEmails: form.Basic.ExcludeFromBulkEmails,
			BCCOwnerOnRenewal:     form.Basic.BCCOwnerOnRenewal,
			ExcludeFromAutomation: form.Basic.ExcludeFromAutomatedEmails,
		}
	}
	if form.Services.Plex {
		req.Plex = buildPlexPayload(form)
	}
	if form.Services.IPTV {
		req.IPTV = buildIPTVPayload(form)
	}
	return req
}

func buildPlexPayload(form *FormModel) *services.PlexPayload {
	grants := make([]services.PlexServerGrant, len(form.Plex.Servers))
	for i, sel := range form.Plex.Servers {
		grants[i] = services.PlexServerGrant{
			ServerID:   sel.ServerID,
			LibraryIDs: append([]string(nil), sel.LibraryIDs...),
		}
	}
	return &services.PlexPayload{
		Email:            form.Plex.Email,
		Servers:          grants,
		PackageID:        form.Plex.PackageID,
		DurationMonths:   form.Plex.DurationMonths,
		ExpirationDate:   form.Plex.ExpirationDate,
		SendWelcomeEmail: form.Plex.SendWelcomeEmail,
		WelcomeTemplate:  form.Plex.WelcomeTemplateID,
		SkipProvisioning: form.PlexAccessUnchanged(),
	}
}

func buildIPTVPayload(form *FormModel) *services.IPTVPayload {
	iptv := form.IPTV
	payload := &services.IPTVPayload{
		PanelID:            iptv.PanelID,
		PackageID:          iptv.PackageID,
		SubscriptionPlanID: iptv.SubscriptionPlanID,
		ChannelGroupIDs:    append([]string(nil), iptv.ChannelGroupIDs...),
		IsTrial:            iptv.IsTrial,
		DurationMonths:     iptv.DurationMonths,
		ExpirationDate:     iptv.ExpirationDate,
		Notes:              iptv.Notes,
		CreateEditor:       iptv.CreateEditor,
		SendWelcomeEmail:   iptv.SendWelcomeEmail,
		WelcomeTemplate:    iptv.WelcomeTemplateID,
	}

	if iptv.Link.Kind.Linked() {
		// Linked accounts already exist on the panel: credentials stay
		// off the wire and the backend attaches by id instead.
		payload.Username = ""
		payload.Password = ""
		payload.Email = ""
		payload.LinkedUserID = iptv.Link.PanelUserID
		if iptv.Link.Kind == LinkedWithEditor {
			payload.LinkedEditorUserID = iptv.Link.EditorUserID
			payload.CreateEditor = false
		}
	} else {
		payload.Username = iptv.Username
		payload.Password = iptv.Password
		payload.Email = iptv.Email
	}
	return payload
}
