package repositories

import (
	"testing"

	"github.com/streampanel/panelctl/internal/models"
	"github.com/streampanel/panelctl/internal/shared"
)

func newTestRepo(t *testing.T) *LookupRepository {
	t.Helper()

	db, err := shared.NewDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewLookupRepository(db)
}

func sampleLookups() *models.Lookups {
	return &models.Lookups{
		Owners: []models.Owner{{ID: "o1", Name: "Owner One", Email: "o1@example.com"}},
		Tags:   []models.Tag{{ID: "t1", Name: "vip", Color: "#ff0"}},
		Packages: []models.ServicePackage{
			{ID: "pkg1", Name: "Plex 12mo", Type: models.ServicePlex, DurationMonths: 12, PriceCents: 9900},
			{ID: "pkg2", Name: "IPTV 1mo", Type: models.ServiceIPTV, DurationMonths: 1, PriceCents: 1500},
		},
		Servers: []models.PlexServer{
			{
				ID: "srv1", Name: "Alpha", MachineID: "m-1", Healthy: true,
				Libraries: []models.Library{{ID: "lib1", Title: "Movies"}, {ID: "lib2", Title: "TV"}},
			},
		},
		Panels:    []models.Panel{{ID: "p1", Name: "Panel One", BaseURL: "https://p1.example.com", Credits: 40, EditorPlaylistID: "pl-9"}},
		Templates: []models.EmailTemplate{{ID: "e1", Name: "Welcome", Subject: "Welcome aboard"}},
	}
}

func TestLookupRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Replace(sampleLookups()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(loaded.Owners) != 1 || loaded.Owners[0].Email != "o1@example.com" {
		t.Errorf("Owners = %+v", loaded.Owners)
	}
	if len(loaded.Packages) != 2 || loaded.Packages[0].Type != models.ServicePlex {
		t.Errorf("Packages = %+v", loaded.Packages)
	}
	if len(loaded.Servers) != 1 {
		t.Fatalf("Servers = %+v", loaded.Servers)
	}
	if got := len(loaded.Servers[0].Libraries); got != 2 {
		t.Errorf("server libraries = %d, want 2", got)
	}
	if p := loaded.Panel("p1"); p == nil || p.EditorPlaylistID != "pl-9" {
		t.Errorf("Panel(p1) = %+v", p)
	}
	if len(loaded.Templates) != 1 {
		t.Errorf("Templates = %+v", loaded.Templates)
	}
}

func TestLookupRepositoryReplaceOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Replace(sampleLookups()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	// Second snapshot drops the panel's editor link and one library.
	next := sampleLookups()
	next.Panels[0].EditorPlaylistID = ""
	next.Servers[0].Libraries = next.Servers[0].Libraries[:1]

	if err := repo.Replace(next); err != nil {
		t.Fatalf("Replace() second snapshot error = %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p := loaded.Panel("p1"); p == nil || p.HasEditor() {
		t.Errorf("Panel(p1) = %+v, want editor link cleared", p)
	}
	if got := len(loaded.Servers[0].Libraries); got != 1 {
		t.Errorf("server libraries = %d, want 1", got)
	}
}

func TestLookupRepositoryEmptyCache(t *testing.T) {
	repo := newTestRepo(t)

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() on empty cache error = %v", err)
	}
	if len(loaded.Owners) != 0 || len(loaded.Servers) != 0 {
		t.Errorf("expected empty lookups, got %+v", loaded)
	}

	fetched, err := repo.FetchedAt()
	if err != nil {
		t.Fatalf("FetchedAt() error = %v", err)
	}
	if !fetched.IsZero() {
		t.Errorf("FetchedAt() = %v, want zero time", fetched)
	}
}

func TestLookupRepositoryFetchedAt(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Replace(sampleLookups()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	fetched, err := repo.FetchedAt()
	if err != nil {
		t.Fatalf("FetchedAt() error = %v", err)
	}
	if fetched.IsZero() {
		t.Error("FetchedAt() should be set after a refresh")
	}
}

func TestLookupRepositoryFetchedAtWithoutOwners(t *testing.T) {
	repo := newTestRepo(t)

	lookups := sampleLookups()
	lookups.Owners = nil
	if err := repo.Replace(lookups); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	fetched, err := repo.FetchedAt()
	if err != nil {
		t.Fatalf("FetchedAt() error = %v", err)
	}
	if fetched.IsZero() {
		t.Error("FetchedAt() should be set when any lookup kind is cached")
	}
}
