// Package testutil provides shared test helpers for setting up vaults and indexes.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/tether/internal/index"
	"github.com/starford/tether/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tether-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote creates a note under the vault root, making parent directories.
func WriteNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// IndexedVault writes notes (path -> content) into a fresh vault and syncs
// them into a fresh index.
func IndexedVault(t *testing.T, notes map[string]string) (string, storage.Provider, *index.DB) {
	t.Helper()
	vaultDir, store := TestVault(t)
	for rel, content := range notes {
		WriteNote(t, vaultDir, rel, content)
	}
	db := TestDB(t)
	if _, err := index.Sync(db, store, QuietLogger()); err != nil {
		t.Fatal(err)
	}
	return vaultDir, store, db
}

// QuietLogger discards all output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
