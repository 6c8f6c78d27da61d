package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/streampanel/panelctl/internal/models"
)

// LookupRepository persists reference-data snapshots.
type LookupRepository struct {
	db *sql.DB
}

// NewLookupRepository creates a new [LookupRepository] with the given database connection
func NewLookupRepository(db *sql.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Replace swaps the entire cached snapshot for the given lookups inside
// one transaction. A partial backend response never leaves the cache in
// a mixed state.
func (r *LookupRepository) Replace(lookups *models.Lookups) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	tables := []string{"owners", "tags", "service_packages", "plex_libraries", "plex_servers", "panels", "email_templates"}
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, o := range lookups.Owners {
		_, err := tx.Exec(
			"INSERT INTO owners (id, sequence, name, email, fetched_at) VALUES (?, ?, ?, ?, ?)",
			o.ID, i+1, o.Name, o.Email, now)
		if err != nil {
			return fmt.Errorf("failed to insert owner: %w", err)
		}
	}

	for i, t := range lookups.Tags {
		_, err := tx.Exec(
			"INSERT INTO tags (id, sequence, name, color, fetched_at) VALUES (?, ?, ?, ?, ?)",
			t.ID, i+1, t.Name, t.Color, now)
		if err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}

	for i, p := range lookups.Packages {
		_, err := tx.Exec(
			"INSERT INTO service_packages (id, sequence, name, service_type, duration_months, price_cents, fetched_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			p.ID, i+1, p.Name, string(p.Type), p.DurationMonths, p.PriceCents, now)
		if err != nil {
			return fmt.Errorf("failed to insert package: %w", err)
		}
	}

	for i, s := range lookups.Servers {
		_, err := tx.Exec(
			"INSERT INTO plex_servers (id, sequence, name, machine_id, healthy, fetched_at) VALUES (?, ?, ?, ?, ?, ?)",
			s.ID, i+1, s.Name, s.MachineID, s.Healthy, now)
		if err != nil {
			return fmt.Errorf("failed to insert server: %w", err)
		}
		for _, lib := range s.Libraries {
			_, err := tx.Exec(
				"INSERT INTO plex_libraries (server_id, library_id, title) VALUES (?, ?, ?)",
				s.ID, lib.ID, lib.Title)
			if err != nil {
				return fmt.Errorf("failed to insert library: %w", err)
			}
		}
	}

	for i, p := range lookups.Panels {
		var editorID any
		if p.EditorPlaylistID != "" {
			editorID = p.EditorPlaylistID
		}
		_, err := tx.Exec(
			"INSERT INTO panels (id, sequence, name, base_url, credits, editor_playlist_id, fetched_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			p.ID, i+1, p.Name, p.BaseURL, p.Credits, editorID, now)
		if err != nil {
			return fmt.Errorf("failed to insert panel: %w", err)
		}
	}

	for i, t := range lookups.Templates {
		_, err := tx.Exec(
			"INSERT INTO email_templates (id, sequence, name, subject, fetched_at) VALUES (?, ?, ?, ?, ?)",
			t.ID, i+1, t.Name, t.Subject, now)
		if err != nil {
			return fmt.Errorf("failed to insert template: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads the full cached snapshot back into a [models.Lookups].
func (r *LookupRepository) Load() (*models.Lookups, error) {
	lookups := &models.Lookups{}

	rows, err := r.db.Query("SELECT id, name, email FROM owners ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query owners: %w", err)
	}
	for rows.Next() {
		var o models.Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.Email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		lookups.Owners = append(lookups.Owners, o)
	}
	rows.Close()

	rows, err = r.db.Query("SELECT id, name, color FROM tags ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		lookups.Tags = append(lookups.Tags, t)
	}
	rows.Close()

	rows, err = r.db.Query("SELECT id, name, service_type, duration_months, price_cents FROM service_packages ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	for rows.Next() {
		var p models.ServicePackage
		var serviceType string
		if err := rows.Scan(&p.ID, &p.Name, &serviceType, &p.DurationMonths, &p.PriceCents); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		p.Type = models.ServiceType(serviceType)
		lookups.Packages = append(lookups.Packages, p)
	}
	rows.Close()

	servers, err := r.loadServers()
	if err != nil {
		return nil, err
	}
	lookups.Servers = servers

	rows, err = r.db.Query("SELECT id, name, base_url, credits, editor_playlist_id FROM panels ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query panels: %w", err)
	}
	for rows.Next() {
		var p models.Panel
		var editorID sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.BaseURL, &p.Credits, &editorID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan panel: %w", err)
		}
		if editorID.Valid {
			p.EditorPlaylistID = editorID.String
		}
		lookups.Panels = append(lookups.Panels, p)
	}
	rows.Close()

	rows, err = r.db.Query("SELECT id, name, subject FROM email_templates ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	for rows.Next() {
		var t models.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		lookups.Templates = append(lookups.Templates, t)
	}
	rows.Close()

	return lookups, nil
}

// loadServers reads servers with their nested libraries.
func (r *LookupRepository) loadServers() ([]models.PlexServer, error) {
	rows, err := r.db.Query("SELECT id, name, machine_id, healthy FROM plex_servers ORDER BY sequence")
	if err != nil {
		return nil, fmt.Errorf("failed to query servers: %w", err)
	}

	var servers []models.PlexServer
	for rows.Next() {
		var s models.PlexServer
		if err := rows.Scan(&s.ID, &s.Name, &s.MachineID, &s.Healthy); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, s)
	}
	rows.Close()

	for i := range servers {
		libRows, err := r.db.Query("SELECT library_id, title FROM plex_libraries WHERE server_id = ? ORDER BY library_id", servers[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query libraries: %w", err)
		}
		for libRows.Next() {
			var lib models.Library
			if err := libRows.Scan(&lib.ID, &lib.Title); err != nil {
				libRows.Close()
				return nil, fmt.Errorf("failed to scan library: %w", err)
			}
			servers[i].Libraries = append(servers[i].Libraries, lib)
		}
		libRows.Close()
	}

	return servers, nil
}

// cacheAgeQuery looks across every lookup kind: a backend with no rows
// of one kind (say, zero owners) must not report an empty cache.
const cacheAgeQuery = `SELECT fetched_at FROM (
	SELECT fetched_at FROM owners
	UNION ALL SELECT fetched_at FROM tags
	UNION ALL SELECT fetched_at FROM service_packages
	UNION ALL SELECT fetched_at FROM plex_servers
	UNION ALL SELECT fetched_at FROM panels
	UNION ALL SELECT fetched_at FROM email_templates
) ORDER BY fetched_at DESC LIMIT 1`

// FetchedAt returns when the cache was last refreshed, or the zero time
// if the cache is empty.
func (r *LookupRepository) FetchedAt() (time.Time, error) {
	var fetched time.Time
	err := r.db.QueryRow(cacheAgeQuery).Scan(&fetched)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query cache age: %w", err)
	}
	return fetched, nil
}
