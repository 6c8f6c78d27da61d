// package services defines interfaces for the panel backend HTTP API
//
// The backend fronts the actual provisioning systems (Plex, IPTV
// panels, the IPTV editor); this package only speaks its REST surface.
package services

import (
	"context"

	"github.com/streampanel/panelctl/internal/models"
)

// Provisioner defines the provisioning operations the wizard consumes.
type Provisioner interface {
	// CheckAccess looks up which Plex servers/libraries are already
	// shared with the given email, including pending invites.
	CheckAccess(ctx context.Context, email string) (*AccessCheckResult, error)

	// SearchPanelUser searches all configured IPTV panels for an
	// existing account with the given username.
	SearchPanelUser(ctx context.Context, username string) (*PanelSearchResult, error)

	// SearchEditorUser checks whether an editor-side account exists for
	// a panel-linked user. Only meaningful for panels with an editor
	// playlist configured.
	SearchEditorUser(ctx context.Context, panelID, username string) (*EditorSearchResult, error)

	// SubmitProvisioning sends the composite provisioning request.
	// The response either resolves every sub-operation synchronously or
	// carries a job id for polling.
	SubmitProvisioning(ctx context.Context, req *ProvisionRequest) (*SubmitResult, error)

	// GetProvisioningStatus fetches per-sub-job status for an async submission.
	GetProvisioningStatus(ctx context.Context, jobID string) (*StatusResult, error)

	// MarkServiceRequestProvisioned flags a linked service request as
	// fulfilled. Best-effort: callers ignore failures.
	MarkServiceRequestProvisioned(ctx context.Context, requestID string) error
}

// LookupSource provides the reference data a wizard session is seeded with.
type LookupSource interface {
	// FetchLookups retrieves owners, tags, packages, servers, panels and
	// email templates in one round trip.
	FetchLookups(ctx context.Context) (*models.Lookups, error)

	// FetchServerAudit retrieves all users on one Plex server with their
	// library access and last activity.
	FetchServerAudit(ctx context.Context, serverID string) ([]AuditRow, error)
}

// ServerAccess describes one Plex server's existing share state for an email.
type ServerAccess struct {
	ServerID      string           `json:"server_id"`
	ServerName    string           `json:"server_name"`
	HasAccess     bool             `json:"has_access"`
	PendingInvite bool             `json:"pending_invite"`
	Libraries     []models.Library `json:"libraries"`
	Status        string           `json:"status"`
}

// AccessCheckResult is the outcome of a Plex access check across all servers.
type AccessCheckResult struct {
	Found  bool           `json:"found"`
	Access []ServerAccess `json:"access"`
}

// PanelUserMatch is one existing IPTV account found during a cross-panel search.
type PanelUserMatch struct {
	PanelID        string `json:"panel_id"`
	PanelName      string `json:"panel_name"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ExpiresAt      string `json:"expires_at"`
	MaxConnections int    `json:"max_connections"`
}

// PanelSearchResult is the outcome of a cross-panel username search.
type PanelSearchResult struct {
	Found   bool             `json:"found"`
	Results []PanelUserMatch `json:"results"`
}

// EditorSearchResult reports whether a linked user already has an
// editor-side account.
type EditorSearchResult struct {
	Found  bool   `json:"found"`
	UserID string `json:"user_id"`
}

// ProvisionRequest is the composite payload for one wizard submission.
// Fields for unselected services are nil and omitted from the wire.
type ProvisionRequest struct {
	// SessionID doubles as an idempotency key for the backend.
	SessionID        string        `json:"session_id"`
	Mode             string        `json:"mode"`
	UserID           string        `json:"user_id,omitempty"`
	ServiceRequestID string        `json:"service_request_id,omitempty"`
	Basic            *BasicPayload `json:"basic,omitempty"`
	Plex             *PlexPayload  `json:"plex,omitempty"`
	IPTV             *IPTVPayload  `json:"iptv,omitempty"`
}

// BasicPayload carries the base-account identity fields.
type BasicPayload struct {
	Name                  string   `json:"name"`
	Email                 string   `json:"email"`
	OwnerID               string   `json:"owner_id,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
	TagIDs                []string `json:"tag_ids,omitempty"`
	ExcludeFromBulkEmails bool     `json:"exclude_from_bulk_emails"`
	BCCOwnerOnRenewal     bool     `json:"bcc_owner_on_renewal"`
	ExcludeFromAutomation bool     `json:"exclude_from_automated_emails"`
}

// PlexServerGrant selects the libraries to share on one server.
type PlexServerGrant struct {
	ServerID   string   `json:"server_id"`
	LibraryIDs []string `json:"library_ids"`
}

// PlexPayload carries the Plex provisioning config.
//
// SkipProvisioning short-circuits the grant when the selected access
// already matches what the user has, so the upstream media service is
// never asked to re-issue a no-op invite.
type PlexPayload struct {
	Email            string            `json:"email"`
	Servers          []PlexServerGrant `json:"servers"`
	PackageID        string            `json:"package_id"`
	DurationMonths   int               `json:"duration_months"`
	ExpirationDate   string            `json:"expiration_date"`
	SendWelcomeEmail bool              `json:"send_welcome_email"`
	WelcomeTemplate  string            `json:"welcome_email_template_id,omitempty"`
	SkipProvisioning bool              `json:"skip_provisioning"`
}

// IPTVPayload carries the IPTV provisioning config.
//
// When LinkedUserID is set the account already exists on the panel and
// credentials are omitted; the backend only attaches the subscription
// (and optionally creates an editor account).
type IPTVPayload struct {
	PanelID            string   `json:"panel_id"`
	Username           string   `json:"username,omitempty"`
	Password           string   `json:"password,omitempty"`
	Email              string   `json:"email,omitempty"`
	PackageID          string   `json:"package_id"`
	SubscriptionPlanID string   `json:"subscription_plan_id"`
	ChannelGroupIDs    []string `json:"channel_group_ids,omitempty"`
	IsTrial            bool     `json:"is_trial"`
	DurationMonths     int      `json:"duration_months"`
	ExpirationDate     string   `json:"expiration_date"`
	Notes              string   `json:"notes,omitempty"`
	CreateEditor       bool     `json:"create_iptv_editor"`
	SendWelcomeEmail   bool     `json:"send_welcome_email"`
	WelcomeTemplate    string   `json:"welcome_email_template_id,omitempty"`
	LinkedUserID       string   `json:"linked_panel_user_id,omitempty"`
	LinkedEditorUserID string   `json:"linked_editor_user_id,omitempty"`
}

// ServiceOutcome is a synchronously resolved per-service result.
type ServiceOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SubmitResult is the backend's response to a provisioning submission.
// JobID empty means every sub-operation resolved synchronously.
type SubmitResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	JobID        string          `json:"job_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	PlexResult   *ServiceOutcome `json:"plex_result,omitempty"`
	IPTVResult   *ServiceOutcome `json:"iptv_result,omitempty"`
	EditorResult *ServiceOutcome `json:"iptv_editor_result,omitempty"`
}

// JobStatusEntry is one sub-job's state in a status poll response.
type JobStatusEntry struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StatusResult is the backend's per-sub-job status for an async submission.
// Nil entries mean the sub-job does not participate in the submission.
// UserID is populated once the base account exists.
type StatusResult struct {
	UserID    string          `json:"user_id,omitempty"`
	UserJob   *JobStatusEntry `json:"user_job,omitempty"`
	PlexJob   *JobStatusEntry `json:"plex_job,omitempty"`
	IPTVJob   *JobStatusEntry `json:"iptv_job,omitempty"`
	EditorJob *JobStatusEntry `json:"iptv_editor_job,omitempty"`
}

// SubJob converts a status entry into a [models.SubJob].
func (e *JobStatusEntry) SubJob() models.SubJob {
	if e == nil {
		return models.SubJob{}
	}
	return models.SubJob{
		Status:  models.ParseJobStatus(e.Status),
		Message: e.Message,
		Details: e.Details,
	}
}

// AuditRow is one user's access/activity record on a Plex server.
type AuditRow struct {
	Email        string   `json:"email"`
	Username     string   `json:"username"`
	UserID       string   `json:"user_id"`
	Libraries    []string `json:"libraries"`
	LastSeen     string   `json:"last_seen"`
	DaysIdle     int      `json:"days_idle"`
	Pending      bool     `json:"pending_invite"`
	AllLibraries bool     `json:"all_libraries"`
}
