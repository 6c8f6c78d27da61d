// Panel backend implementation of [Provisioner] and [LookupSource]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBackendURL = "http://localhost:3000"

// PanelAPIService talks to the panel backend REST API.
// Requests are rate limited so concurrent fan-out (audit export, panel
// search) never hammers the backend.
type PanelAPIService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var (
	_ Provisioner  = (*PanelAPIService)(nil)
	_ LookupSource = (*PanelAPIService)(nil)
)

// NewPanelAPIService creates a new backend client.
// A zero ratePerSec disables rate limiting.
func NewPanelAPIService(baseURL, apiKey string, client *http.Client, ratePerSec float64) *PanelAPIService {
	if baseURL == "" {
		baseURL = defaultBackendURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}

	return &PanelAPIService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: client,
		limiter:    limiter,
	}
}

// doRequest performs an authenticated request and decodes the JSON response into result.
func (p *PanelAPIService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := p.baseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := decodeErrorMessage(data)
		if msg != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// decodeErrorMessage extracts a human-readable message from an error body.
func decodeErrorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// CheckAccess looks up existing Plex access for an email across all servers.
func (p *PanelAPIService) CheckAccess(ctx context.Context, email string) (*AccessCheckResult, error) {
	var result AccessCheckResult
	endpoint := "/api/plex/check-access?email=" + url.QueryEscape(email)
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchPanelUser searches all IPTV panels for an existing username.
func (p *PanelAPIService) SearchPanelUser(ctx context.Context, username string) (*PanelSearchResult, error) {
	var result PanelSearchResult
	endpoint := "/api/iptv/search-user?username=" + url.QueryEscape(username)
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchEditorUser checks for an editor-side account for a panel user.
func (p *PanelAPIService) SearchEditorUser(ctx context.Context, panelID, username string) (*EditorSearchResult, error) {
	var result EditorSearchResult
	endpoint := fmt.Sprintf("/api/iptv/panels/%s/editor-user?username=%s",
		url.PathEscape(panelID), url.QueryEscape(username))
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitProvisioning sends the composite provisioning request.
func (p *PanelAPIService) SubmitProvisioning(ctx context.Context, req *ProvisionRequest) (*SubmitResult, error) {
	var result SubmitResult
	if err := p.doRequest(ctx, http.MethodPost, "/api/provisioning", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProvisioningStatus polls an async submission's per-sub-job status.
func (p *PanelAPIService) GetProvisioningStatus(ctx context.Context, jobID string) (*StatusResult, error) {
	var result StatusResult
	endpoint := "/api/provisioning/" + url.PathEscape(jobID) + "/status"
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get performs a raw authenticated GET against the backend and returns
// the decoded JSON body. Used by the api passthrough command.
func (p *PanelAPIService) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var result json.RawMessage
	if err := p.doRequest(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkServiceRequestProvisioned flags a service request as fulfilled.
func (p *PanelAPIService) MarkServiceRequestProvisioned(ctx context.Context, requestID string) error {
	endpoint := "/api/service-requests/" + url.PathEscape(requestID) + "/provisioned"
	return p.doRequest(ctx, http.MethodPost, endpoint, nil, nil)
}

// lookupsResponse is the backend's reference-data envelope.
type lookupsResponse struct {
	Owners []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"owners"`
	Tags []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"tags"`
	Packages []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		ServiceType    string `json:"service_type"`
		DurationMonths int    `json:"duration_months"`
		PriceCents     int    `json:"price_cents"`
	} `json:"packages"`
	Servers []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		MachineID string `json:"machine_id"`
		Healthy   bool   `json:"healthy"`
		Libraries []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"libraries"`
	} `json:"servers"`
	Panels []struct {
		ID               string `json:"id"`
		Name             string `json:"name"`
		BaseURL          string `json:"base_url"`
		Credits          int    `json:"credits"`
		EditorPlaylistID string `json:"editor_playlist_id"`
	} `json:"panels"`
	Templates []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Subject string `json:"subject"`
	} `json:"email_templates"`
}

// FetchLookups retrieves all reference data in one round trip.
func (p *PanelAPIService) FetchLookups(ctx context.Context) (*models.Lookups, error) {
	var resp lookupsResponse
	if err := p.doRequest(ctx, http.MethodGet, "/api/lookups", nil, &resp); err != nil {
		return nil, err
	}

	lookups := &models.Lookups{}

	for _, o := range resp.Owners {
		lookups.Owners = append(lookups.Owners, models.Owner{ID: o.ID, Name: o.Name, Email: o.Email})
	}
	for _, t := range resp.Tags {
		lookups.Tags = append(lookups.Tags, models.Tag{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	for _, pkg := range resp.Packages {
		lookups.Packages = append(lookups.Packages, models.ServicePackage{
			ID:             pkg.ID,
			Name:           pkg.Name,
			Type:           models.ServiceType(pkg.ServiceType),
			DurationMonths: pkg.DurationMonths,
			PriceCents:     pkg.PriceCents,
		})
	}
	for _, s := range resp.Servers {
		server := models.PlexServer{
			ID:        s.ID,
			Name:      s.Name,
			MachineID: s.MachineID,
			Healthy:   s.Healthy,
		}
		for _, lib := range s.Libraries {
			server.Libraries = append(server.Libraries, models.Library{ID: lib.ID, Title: lib.Title})
		}
		lookups.Servers = append(lookups.Servers, server)
	}
	for _, pn := range resp.Panels {
		lookups.Panels = append(lookups.Panels, models.Panel{
			ID:               pn.ID,
			Name:             pn.Name,
			BaseURL:          pn.BaseURL,
			Credits:          pn.Credits,
			EditorPlaylistID: pn.EditorPlaylistID,
		})
	}
	for _, t := range resp.Templates {
		lookups.Templates = append(lookups.Templates, models.EmailTemplate{ID: t.ID, Name: t.Name, Subject: t.Subject})
	}

	return lookups, nil
}

// FetchServerAudit retrieves the user/access audit for one Plex server.
func (p *PanelAPIService) FetchServerAudit(ctx context.Context, serverID string) ([]AuditRow, error) {
	var resp struct {
		Users []AuditRow `json:"users"`
	}
	endpoint := "/api/plex/servers/" + url.PathEscape(serverID) + "/audit"
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
