package index

import (
	"fmt"
	"time"

	"github.com/starford/tether/internal/models"
	"github.com/starford/tether/internal/parser"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Name      string
	Checksum  string
	UpdatedAt time.Time
}

// UpsertNote inserts or replaces a note and its outgoing links within a transaction.
func (db *DB) UpsertNote(n NoteRow, links []parser.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(`
		INSERT INTO notes (path, name, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name       = excluded.name,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, n.Path, n.Name, n.Checksum, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO links (source, target, count) VALUES (?, ?, ?)
			ON CONFLICT(source, target) DO UPDATE SET count = count + excluded.count`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(n.Path, l.Target, l.Count); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the note paths that link to target, ordered by path.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? COLLATE NOCASE ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Documents lists every indexed note ordered by path.
func (db *DB) Documents() ([]models.Document, error) {
	rows, err := db.conn.Query(`SELECT name, path FROM notes ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Name, &d.Path); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UnresolvedLinks returns source path -> target -> count for every link whose
// target names no indexed note, either by name or by extension-less path.
func (db *DB) UnresolvedLinks() (map[string]map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT l.source, l.target, l.count
		FROM links l
		WHERE NOT EXISTS (
			SELECT 1 FROM notes n
			WHERE n.name = l.target COLLATE NOCASE
			   OR n.path = l.target || '.md'
		)`)
	if err != nil {
		return nil, fmt.Errorf("index: unresolved links: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var src, target string
		var count int
		if err := rows.Scan(&src, &target, &count); err != nil {
			return nil, err
		}
		m, ok := out[src]
		if !ok {
			m = make(map[string]int)
			out[src] = m
		}
		m[target] = count
	}
	return out, rows.Err()
}
