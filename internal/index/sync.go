package index

import (
	"log/slog"

	"github.com/starford/tether/internal/storage"
)

// SyncReport counts the changes made by a Sync pass.
type SyncReport struct {
	Indexed int
	Removed int
}

// Changed reports whether the pass touched the index.
func (r SyncReport) Changed() bool { return r.Indexed+r.Removed > 0 }

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (SyncReport, error) {
	var rep SyncReport

	metas, err := store.List("")
	if err != nil {
		return rep, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return rep, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := db.IndexFile(m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		rep.Indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		rep.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return rep, nil
}
