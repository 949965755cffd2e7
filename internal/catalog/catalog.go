// Package catalog builds the set of pages that text fragments can be linked to:
// every vault document plus every link target that never resolved to one.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/starford/tether/internal/models"
)

// UnresolvedPath is the path given to pages that only exist as link targets.
const UnresolvedPath = "Unresolved"

// Source enumerates the vault as seen by the index.
type Source interface {
	// Documents returns every known document in enumeration order.
	Documents() ([]models.Document, error)
	// UnresolvedLinks maps source path -> link target -> reference count for
	// targets that do not resolve to a document.
	UnresolvedLinks() (map[string]map[string]int, error)
}

// Catalog is an immutable snapshot of known pages. Documents come first, then
// unresolved reference strings.
type Catalog struct {
	pages []models.Page
}

// New wraps pages as a catalog. The slice is copied.
func New(pages []models.Page) *Catalog {
	return &Catalog{pages: append([]models.Page(nil), pages...)}
}

// Pages returns the catalog entries. Callers must not modify the result.
func (c *Catalog) Pages() []models.Page {
	if c == nil {
		return nil
	}
	return c.pages
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.pages)
}

// Build reads src and returns a fresh catalog. Unresolved targets are
// deduplicated across the whole vault; sources and targets are enumerated in
// sorted order so the result is deterministic.
func Build(src Source) (*Catalog, error) {
	docs, err := src.Documents()
	if err != nil {
		return nil, fmt.Errorf("catalog: documents: %w", err)
	}
	unresolved, err := src.UnresolvedLinks()
	if err != nil {
		return nil, fmt.Errorf("catalog: unresolved links: %w", err)
	}

	pages := make([]models.Page, 0, len(docs)+len(unresolved))
	seen := make(map[string]struct{}, cap(pages))
	add := func(p models.Page) {
		if p.Name == "" {
			return
		}
		if _, dup := seen[p.Key()]; dup {
			return
		}
		seen[p.Key()] = struct{}{}
		pages = append(pages, p)
	}

	for _, d := range docs {
		add(models.Page{Name: d.Name, Path: d.Path})
	}

	sources := make([]string, 0, len(unresolved))
	for s := range unresolved {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		targets := make([]string, 0, len(unresolved[s]))
		for t := range unresolved[s] {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			add(models.Page{Name: t, Path: UnresolvedPath})
		}
	}

	return &Catalog{pages: pages}, nil
}

// Store holds the current catalog. Refresh replaces it wholesale; readers that
// took a snapshot earlier keep using theirs.
type Store struct {
	src     Source
	logger  *slog.Logger
	current atomic.Pointer[Catalog]
	onSwap  func(*Catalog)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOnRefresh registers fn to be called after every successful refresh.
func WithOnRefresh(fn func(*Catalog)) StoreOption {
	return func(s *Store) {
		s.onSwap = fn
	}
}

// NewStore creates a store that starts with an empty catalog.
func NewStore(src Source, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{src: src, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&Catalog{})
	return s
}

// Snapshot returns the current catalog. It never blocks.
func (s *Store) Snapshot() *Catalog {
	return s.current.Load()
}

// Refresh rebuilds the catalog from the source and swaps it in. On failure
// the previous catalog stays in place.
func (s *Store) Refresh(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return s.Snapshot(), err
	}
	c, err := Build(s.src)
	if err != nil {
		s.logger.Warn("catalog: refresh failed", slog.String("error", err.Error()))
		return s.Snapshot(), err
	}
	s.current.Store(c)
	s.logger.Debug("catalog: refreshed", slog.Int("pages", c.Len()))
	if s.onSwap != nil {
		s.onSwap(c)
	}
	return c, nil
}
