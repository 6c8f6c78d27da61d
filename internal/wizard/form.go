package wizard

import (
	"sort"

	"github.com/streampanel/panelctl/internal/services"
)

// BasicInfo holds the base-account identity fields.
type BasicInfo struct {
	Name                       string
	Email                      string
	OwnerID                    string
	Notes                      string
	TagIDs                     []string
	ExcludeFromBulkEmails      bool
	BCCOwnerOnRenewal          bool
	ExcludeFromAutomatedEmails bool
}

// ServerSelection is one Plex server with the libraries chosen for it.
type ServerSelection struct {
	ServerID   string
	LibraryIDs []string
}

// PlexConfig holds the Plex step's fields.
type PlexConfig struct {
	Email             string
	Servers           []ServerSelection
	PackageID         string
	DurationMonths    int
	ExpirationDate    string
	SendWelcomeEmail  bool
	WelcomeTemplateID string
}

// Server returns the selection for a server id, or nil.
func (p *PlexConfig) Server(id string) *ServerSelection {
	for i := range p.Servers {
		if p.Servers[i].ServerID == id {
			return &p.Servers[i]
		}
	}
	return nil
}

// ToggleLibrary adds or removes a library on a server selection,
// creating or pruning the selection as needed.
func (p *PlexConfig) ToggleLibrary(serverID, libraryID string) {
	sel := p.Server(serverID)
	if sel == nil {
		p.Servers = append(p.Servers, ServerSelection{ServerID: serverID, LibraryIDs: []string{libraryID}})
		return
	}

	for i, id := range sel.LibraryIDs {
		if id == libraryID {
			sel.LibraryIDs = append(sel.LibraryIDs[:i], sel.LibraryIDs[i+1:]...)
			if len(sel.LibraryIDs) == 0 {
				p.removeServer(serverID)
			}
			return
		}
	}
	sel.LibraryIDs = append(sel.LibraryIDs, libraryID)
}

func (p *PlexConfig) removeServer(serverID string) {
	for i := range p.Servers {
		if p.Servers[i].ServerID == serverID {
			p.Servers = append(p.Servers[:i], p.Servers[i+1:]...)
			return
		}
	}
}

// LinkKind is the IPTV existing-user linking state.
type LinkKind int

const (
	// NotLinked means a fresh IPTV account will be created.
	NotLinked LinkKind = iota
	// LinkedNoEditor reuses an existing panel account; no editor-side
	// account exists yet.
	LinkedNoEditor
	// LinkedWithEditor reuses an existing panel account that already has
	// an editor-side account.
	LinkedWithEditor
)

func (k LinkKind) String() string {
	switch k {
	case LinkedNoEditor:
		return "linked"
	case LinkedWithEditor:
		return "linked_with_editor"
	default:
		return "not_linked"
	}
}

// Linked reports whether an existing panel account is being reused.
func (k LinkKind) Linked() bool { return k != NotLinked }

// LinkState is a tagged union: the id fields are only meaningful for
// the kinds that carry them.
type LinkState struct {
	Kind         LinkKind
	PanelUserID  string // LinkedNoEditor, LinkedWithEditor
	EditorUserID string // LinkedWithEditor only
	Username     string // display only
}

// IPTVConfig holds the IPTV step's fields.
type IPTVConfig struct {
	PanelID            string
	Username           string
	Password           string
	Email              string
	PackageID          string
	SubscriptionPlanID string
	ChannelGroupIDs    []string
	IsTrial            bool
	DurationMonths     int
	ExpirationDate     string
	Notes              string
	CreateEditor       bool
	SendWelcomeEmail   bool
	WelcomeTemplateID  string
	Link               LinkState
}

// FormModel is the single source of truth for one wizard session.
// The rendered UI is always a projection of it; submission never reads
// anything else.
type FormModel struct {
	Basic    BasicInfo
	Services ServiceSelection
	Plex     PlexConfig
	IPTV     IPTVConfig

	// OriginalPlexAccess is the verbatim snapshot of the last access
	// check, retained for the skip-unchanged diff at submission time.
	OriginalPlexAccess []ServerSelection

	// AccessCheck / PanelSearch cache the raw collaborator responses
	// for rendering.
	AccessCheck *services.AccessCheckResult
	PanelSearch *services.PanelSearchResult
}

// NewFormModel creates a form with defaults for the given mode.
func NewFormModel(mode Mode) *FormModel {
	form := &FormModel{}
	if mode != ModeCreate {
		form.Services = ServicesFor(mode)
	}
	form.Plex.DurationMonths = 1
	form.IPTV.DurationMonths = 1
	return form
}

// ApplyAccessCheck seeds the Plex server selection from an access-check
// result and snapshots it as the original access for later diffing.
func (f *FormModel) ApplyAccessCheck(result *services.AccessCheckResult) {
	f.AccessCheck = result
	f.Plex.Servers = nil
	f.OriginalPlexAccess = nil

	if result == nil {
		return
	}

	for _, access := range result.Access {
		if !access.HasAccess || len(access.Libraries) == 0 {
			continue
		}
		libs := make([]string, len(access.Libraries))
		for i, lib := range access.Libraries {
			libs[i] = lib.ID
		}
		f.Plex.Servers = append(f.Plex.Servers, ServerSelection{ServerID: access.ServerID, LibraryIDs: libs})

		snapshot := make([]string, len(libs))
		copy(snapshot, libs)
		f.OriginalPlexAccess = append(f.OriginalPlexAccess, ServerSelection{ServerID: access.ServerID, LibraryIDs: snapshot})
	}
}

// PlexAccessUnchanged reports whether the current Plex selection is
// set-equal, server by server and library by library, to the snapshot
// taken at access-check time. True means the grant would be a no-op and
// the backend is told to skip it, so the upstream media service never
// re-issues duplicate invitation emails.
func (f *FormModel) PlexAccessUnchanged() bool {
	if f.OriginalPlexAccess == nil {
		return false
	}
	return selectionsEqual(f.OriginalPlexAccess, f.Plex.Servers)
}

// selectionsEqual compares two server selections as sets.
func selectionsEqual(a, b []ServerSelection) bool {
	if len(a) != len(b) {
		return false
	}

	byServer := make(map[string][]string, len(a))
	for _, sel := range a {
		byServer[sel.ServerID] = sel.LibraryIDs
	}

	for _, sel := range b {
		libs, ok := byServer[sel.ServerID]
		if !ok {
			return false
		}
		if !sameIDSet(libs, sel.LibraryIDs) {
			return false
		}
	}
	return true
}

// sameIDSet compares two id slices ignoring order.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// LinkPanelUser switches the IPTV config to the linked-user path.
// editorUserID is empty when no editor-side account exists.
func (f *FormModel) LinkPanelUser(match services.PanelUserMatch, editorUserID string) {
	f.IPTV.PanelID = match.PanelID
	f.IPTV.Username = ""
	f.IPTV.Password = ""
	f.IPTV.Email = ""

	link := LinkState{
		Kind:        LinkedNoEditor,
		PanelUserID: match.UserID,
		Username:    match.Username,
	}
	if editorUserID != "" {
		link.Kind = LinkedWithEditor
		link.EditorUserID = editorUserID
	}
	f.IPTV.Link = link

	// An existing editor account means there is nothing editor-side to create.
	if link.Kind == LinkedWithEditor {
		f.IPTV.CreateEditor = false
	}
}

// ClearLink reverts the IPTV config to the create-new-account path.
func (f *FormModel) ClearLink() {
	f.IPTV.Link = LinkState{}
}
