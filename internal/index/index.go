package index

import (
	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/parser"
	"github.com/starford/tether/internal/storage"
)

// The catalog is built straight from the index.
var _ catalog.Source = (*DB)(nil)

// IndexFile parses data and upserts it into the index under path.
func (db *DB) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:     path,
		Name:     storage.NoteName(path),
		Checksum: storage.Checksum(data),
	}, res.Links)
}
