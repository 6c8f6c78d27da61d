package models

// ServiceType identifies which provisionable subsystem a package applies to.
type ServiceType string

const (
	ServicePlex       ServiceType = "plex"
	ServiceIPTV       ServiceType = "iptv"
	ServiceIPTVEditor ServiceType = "iptv_editor"
)

// Owner represents a reseller/sub-reseller that subscription users belong to.
type Owner struct {
	ID    string
	Name  string
	Email string
}

// Tag is a free-form label attachable to subscription users.
type Tag struct {
	ID    string
	Name  string
	Color string
}

// ServicePackage represents a sellable subscription package for one service type.
type ServicePackage struct {
	ID             string
	Name           string
	Type           ServiceType
	DurationMonths int
	PriceCents     int
}

// Library represents a single shareable library section on a Plex server.
type Library struct {
	ID    string
	Title string
}

// PlexServer represents a configured Plex media server with its shareable libraries.
type PlexServer struct {
	ID        string
	Name      string
	MachineID string
	Healthy   bool
	Libraries []Library
}

// Panel represents a configured IPTV panel.
//
// EditorPlaylistID is empty when the panel has no linked external
// playlist/editor system.
type Panel struct {
	ID               string
	Name             string
	BaseURL          string
	Credits          int
	EditorPlaylistID string
}

// HasEditor reports whether the panel has a linked editor playlist configured.
func (p Panel) HasEditor() bool { return p.EditorPlaylistID != "" }

// EmailTemplate represents a reusable email template for welcome/renewal mail.
type EmailTemplate struct {
	ID      string
	Name    string
	Subject string
}

// Lookups aggregates all reference data a wizard session needs.
// Loaded once at session start and read-only afterwards.
type Lookups struct {
	Owners    []Owner
	Tags      []Tag
	Packages  []ServicePackage
	Servers   []PlexServer
	Panels    []Panel
	Templates []EmailTemplate
}

// Server returns the server with the given id, or nil.
func (l *Lookups) Server(id string) *PlexServer {
	for i := range l.Servers {
		if l.Servers[i].ID == id {
			return &l.Servers[i]
		}
	}
	return nil
}

// Panel returns the panel with the given id, or nil.
func (l *Lookups) Panel(id string) *Panel {
	for i := range l.Panels {
		if l.Panels[i].ID == id {
			return &l.Panels[i]
		}
	}
	return nil
}

// PackagesFor filters packages by service type.
func (l *Lookups) PackagesFor(t ServiceType) []ServicePackage {
	var out []ServicePackage
	for _, p := range l.Packages {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}
