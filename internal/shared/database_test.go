package shared

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDatabase(t *testing.T) {
	t.Run("applies connection pragmas", func(t *testing.T) {
		db, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "cache.db")})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer db.Close()

		var timeout int
		if err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("failed to read busy_timeout: %v", err)
		}
		if timeout != 5000 {
			t.Errorf("expected busy_timeout 5000, got %d", timeout)
		}

		var foreignKeys int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
			t.Fatalf("failed to read foreign_keys: %v", err)
		}
		if foreignKeys != 1 {
			t.Error("expected foreign_keys enabled")
		}

		var journalMode string
		if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
			t.Fatalf("failed to read journal_mode: %v", err)
		}
		if !strings.EqualFold(journalMode, "wal") {
			t.Errorf("expected wal journal mode, got %s", journalMode)
		}
	})

	t.Run("applies pool limits from config", func(t *testing.T) {
		db, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "cache.db"), MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 2 {
			t.Errorf("expected max open connections 2, got %d", got)
		}
	})

	t.Run("in-memory databases use a single connection", func(t *testing.T) {
		db, err := NewDatabase(DatabaseConfig{Path: ":memory:", MaxOpenConns: 4})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer db.Close()

		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("expected max open connections 1, got %d", got)
		}
	})

	t.Run("fails on an unwritable path", func(t *testing.T) {
		_, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "missing", "cache.db")})
		if err == nil {
			t.Fatal("expected error for path in a missing directory")
		}
	})
}
