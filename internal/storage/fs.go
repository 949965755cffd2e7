package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/tether/internal/models"
)

// FS is a Provider over a vault directory on local disk.
type FS struct {
	root string
}

// NewFS opens the vault at root, which must be an existing directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: vault root %s is not a directory", abs)
	}
	return &FS{root: abs}, nil
}

// resolve maps a vault-relative, slash-separated path to an absolute one
// inside the vault. Paths leaving the vault are rejected.
func (f *FS) resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	native := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(native) {
		return "", fmt.Errorf("storage: %s: absolute paths not allowed", rel)
	}
	abs := filepath.Join(f.root, native)
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %s: path escapes vault root", rel)
	}
	return abs, nil
}

// List returns every note under dir. Hidden directories (.obsidian, .git,
// .trash) are skipped, and paths come back slash-separated.
func (f *FS) List(dir string) ([]models.NoteMetadata, error) {
	base, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	var notes []models.NoteMetadata
	walk := func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		case !IsNote(d.Name()):
			return nil
		}
		meta, err := f.describe(p, d)
		if err != nil {
			return err
		}
		notes = append(notes, meta)
		return nil
	}
	if err := filepath.WalkDir(base, walk); err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", dir, err)
	}
	return notes, nil
}

func (f *FS) describe(abs string, d fs.DirEntry) (models.NoteMetadata, error) {
	info, err := d.Info()
	if err != nil {
		return models.NoteMetadata{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.NoteMetadata{}, err
	}
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return models.NoteMetadata{}, err
	}
	return models.NoteMetadata{
		Path:      filepath.ToSlash(rel),
		Checksum:  Checksum(data),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Read returns the content of the note at path.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces the note at path with content. The bytes go to a temp file
// in the same directory which is synced and renamed over the target.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := writeAtomic(abs, content); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

func writeAtomic(abs string, content []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".tether-tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsNote reports whether name is a markdown note.
func IsNote(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// NoteName returns the name a note is linked by: its base name without
// extension.
func NoteName(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
