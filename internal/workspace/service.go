// Package workspace hosts open note views server-side and drives the
// highlighter for them: rendering on change, clicks into links, and
// persistence of the resulting edits.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starford/tether/internal/apperr"
	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/editor"
	"github.com/starford/tether/internal/interact"
	"github.com/starford/tether/internal/matcher"
	"github.com/starford/tether/internal/models"
	"github.com/starford/tether/internal/render"
	"github.com/starford/tether/internal/sse"
	"github.com/starford/tether/internal/storage"
)

// Indexer is the part of the vault index the workspace writes through.
type Indexer interface {
	IndexFile(path string, data []byte) error
	Backlinks(target string) ([]string, error)
}

// Publisher receives view and catalog events.
type Publisher interface {
	Publish(event sse.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event) {}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where events go.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithRenderOptions passes options through to the renderer.
func WithRenderOptions(opts ...render.Option) Option {
	return func(s *Service) { s.renderOpts = append(s.renderOpts, opts...) }
}

// WithNudgeDelay publishes a view.nudge event delay after each new
// decoration set.
func WithNudgeDelay(d time.Duration) Option {
	return func(s *Service) { s.nudgeDelay = d }
}

// ViewInfo is the JSON representation of an open view.
type ViewInfo struct {
	ID          string         `json:"id"`
	Path        string         `json:"path"`
	Content     string         `json:"content"`
	Focused     bool           `json:"focused"`
	Selection   Selection      `json:"selection"`
	Backlinks   []string       `json:"backlinks"`
	Decorations *render.Set    `json:"decorations"`
	Blocks      []editor.Block `json:"blocks"`
}

// ClickResult is the outcome of a click on a view.
type ClickResult struct {
	interact.Result
	Decorations *render.Set `json:"decorations"`
}

// Service coordinates storage, index, catalog and the highlighter for open views.
type Service struct {
	store   storage.Provider
	index   Indexer
	catalog *catalog.Store
	matcher *matcher.Matcher
	render  *render.Renderer
	handler *interact.Handler
	pub     Publisher
	logger  *slog.Logger

	renderOpts []render.Option
	nudgeDelay time.Duration

	mu    sync.RWMutex
	views map[string]*View
}

// NewService creates a workspace over the vault store and its index.
func NewService(store storage.Provider, idx Indexer, cat *catalog.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		index:   idx,
		catalog: cat,
		pub:     nopPublisher{},
		logger:  logger,
		views:   make(map[string]*View),
	}
	for _, o := range opts {
		o(s)
	}
	ropts := append([]render.Option{render.WithLogger(logger)}, s.renderOpts...)
	if s.nudgeDelay > 0 {
		ropts = append(ropts, render.WithNudge(s.nudgeDelay, s.nudge))
	}
	s.render = render.New(cat, ropts...)
	s.matcher = matcher.New(cat)
	s.handler = interact.New(s.matcher, s.render.Class(), logger)
	return s
}

// Class returns the class name carried by marks.
func (s *Service) Class() string { return s.render.Class() }

// Open reads the note at path into a new focused view. Opening refreshes
// the catalog before the first render.
func (s *Service) Open(ctx context.Context, path string) (*View, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	s.refresh(ctx)

	v := &View{
		id:      uuid.NewString(),
		path:    path,
		svc:     s,
		content: string(data),
		focused: true,
	}
	v.deco = s.render.Attach(v)

	s.mu.Lock()
	s.views[v.id] = v
	s.mu.Unlock()

	s.logger.Info("workspace: view opened", slog.String("view", v.id), slog.String("path", path))
	s.update(v, editor.Update{FileOpened: true})
	return v, nil
}

// View returns the open view with the given id.
func (s *Service) View(id string) (*View, error) {
	s.mu.RLock()
	v, ok := s.views[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return v, nil
}

// Views returns the ids of all open views, sorted.
func (s *Service) Views() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.views))
	for id := range s.views {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Info describes an open view.
func (s *Service) Info(id string) (*ViewInfo, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	bl, err := s.Backlinks(storage.NoteName(v.path))
	if err != nil {
		return nil, err
	}
	return &ViewInfo{
		ID:          v.id,
		Path:        v.path,
		Content:     v.Content(),
		Focused:     v.HasFocus(),
		Selection:   v.Selection(),
		Backlinks:   bl,
		Decorations: v.deco.Decorations(),
		Blocks:      v.VisibleBlocks(),
	}, nil
}

// Backlinks returns the notes linking to the page name, never nil.
func (s *Service) Backlinks(name string) ([]string, error) {
	bl, err := s.index.Backlinks(name)
	if err != nil {
		return nil, fmt.Errorf("workspace: backlinks: %w", err)
	}
	if bl == nil {
		bl = []string{}
	}
	return bl, nil
}

// Close discards a view.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	v, ok := s.views[id]
	delete(s.views, id)
	s.mu.Unlock()
	if !ok {
		return apperr.ErrNotFound
	}
	v.close()
	s.logger.Info("workspace: view closed", slog.String("view", id))
	return nil
}

// SetViewport replaces the visible blocks of a view.
func (s *Service) SetViewport(id string, blocks []editor.Block) (*render.Set, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	v.setBlocks(blocks)
	return s.update(v, editor.Update{ViewportChanged: true}), nil
}

// SetViewportLines shows the inclusive line window [first, last].
func (s *Service) SetViewportLines(id string, first, last int) (*render.Set, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	return s.SetViewport(id, LineBlocks(v.Content(), first, last))
}

// SetContent replaces the unsaved text of a view.
func (s *Service) SetContent(id, content string) (*render.Set, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	v.setContent(content)
	return s.update(v, editor.Update{DocChanged: true}), nil
}

// Select moves the selection. Selection changes never trigger a render.
func (s *Service) Select(id string, sel Selection) (*render.Set, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	v.setSelection(sel)
	return s.update(v, editor.Update{}), nil
}

// SetFocus records whether the view has focus. Regaining focus re-renders,
// since changes made while unfocused were skipped.
func (s *Service) SetFocus(id string, focused bool) (*render.Set, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	if v.setFocus(focused) && focused {
		return s.update(v, editor.Update{ViewportChanged: true}), nil
	}
	return v.deco.Decorations(), nil
}

// Decorations returns the current decoration set of a view.
func (s *Service) Decorations(id string) (*render.Set, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	return v.deco.Decorations(), nil
}

// Click handles a click on a view. A click that linked a mark refreshes the
// catalog and re-renders the view.
func (s *Service) Click(ctx context.Context, id string, c editor.Click) (*ClickResult, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	res, err := s.handler.Handle(v, c)
	if err != nil {
		return nil, err
	}
	out := &ClickResult{Result: res, Decorations: v.deco.Decorations()}
	if res.Edit != nil {
		s.refresh(ctx)
		out.Decorations = s.update(v, editor.Update{DocChanged: true})
	}
	return out, nil
}

// ClickAt handles a click at document offset pos, as if the host reported the
// mark under pos. A position outside every mark is an ignored click.
func (s *Service) ClickAt(ctx context.Context, id string, button, pos int) (*ClickResult, error) {
	v, err := s.View(id)
	if err != nil {
		return nil, err
	}
	m, ok := v.deco.Decorations().At(pos)
	if !ok {
		return &ClickResult{Decorations: v.deco.Decorations()}, nil
	}
	return s.Click(ctx, id, editor.Click{Button: button, Classes: []string{m.Class}, Data: m.Data})
}

// Lookup ranks catalog pages for query.
func (s *Service) Lookup(query string) []models.Page {
	return s.matcher.Lookup(query)
}

// LastLookup returns the most recent ranked list.
func (s *Service) LastLookup() []models.Page {
	return s.matcher.Last()
}

// Catalog returns the current catalog snapshot.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog.Snapshot()
}

// RefreshCatalog rebuilds the catalog now.
func (s *Service) RefreshCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return s.catalog.Refresh(ctx)
}

// Scan returns the marks for a whole note without opening a view.
func (s *Service) Scan(path string) ([]editor.Mark, error) {
	v, err := s.detached(path)
	if err != nil {
		return nil, err
	}
	return s.render.Build(v), nil
}

// Link turns the occurrence of keyword at [start, end) of the note at path
// into a link to its best-ranked page, as a click on that mark would.
func (s *Service) Link(ctx context.Context, path, keyword string, start, end int) (*interact.Result, error) {
	v, err := s.detached(path)
	if err != nil {
		return nil, err
	}
	res, err := s.handler.Handle(v, editor.Click{
		Button:  editor.ButtonPrimary,
		Classes: []string{s.render.Class()},
		Data:    editor.MarkData{Keyword: keyword, Start: start, End: end},
	})
	if err != nil {
		return nil, err
	}
	if !res.Handled {
		return nil, fmt.Errorf("workspace: link %q: %w", keyword, apperr.ErrBusy)
	}
	if res.Edit != nil {
		s.refresh(ctx)
	}
	return &res, nil
}

// FileChanged reacts to an index change made outside the workspace: the
// catalog is rebuilt and open views of path pick up the new text.
func (s *Service) FileChanged(ctx context.Context, path string) {
	s.refresh(ctx)
	data, err := s.store.Read(path)
	if err != nil {
		return
	}
	for _, v := range s.viewsOf(path, "") {
		if v.Content() == string(data) {
			continue
		}
		v.setContent(string(data))
		s.update(v, editor.Update{DocChanged: true})
	}
}

// detached builds an unregistered view over the note at path. Its events
// carry no view id.
func (s *Service) detached(path string) (*View, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &View{path: path, svc: s, content: string(data), focused: true}, nil
}

func (s *Service) persist(path, content string) error {
	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return fmt.Errorf("workspace: write %s: %w", path, err)
	}
	if err := s.index.IndexFile(path, data); err != nil {
		return fmt.Errorf("workspace: index %s: %w", path, err)
	}
	return nil
}

// edited publishes a persisted edit and carries it to other views of the same note.
func (s *Service) edited(v *View, e editor.Edit) {
	s.pub.Publish(sse.Event{Type: sse.TypeEdited, View: v.id, Data: map[string]any{
		"path": v.path,
		"edit": e,
	}})
	content := v.Content()
	for _, other := range s.viewsOf(v.path, v.id) {
		other.setContent(content)
		s.update(other, editor.Update{DocChanged: true})
	}
}

func (s *Service) viewsOf(path, except string) []*View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*View
	for id, v := range s.views {
		if id != except && v.path == path {
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) update(v *View, u editor.Update) *render.Set {
	prev := v.deco.Decorations()
	set := v.deco.Update(u)
	if set != prev {
		s.pub.Publish(sse.Event{Type: sse.TypeDecorations, View: v.id, Data: set})
	}
	return set
}

func (s *Service) refresh(ctx context.Context) {
	if _, err := s.catalog.Refresh(ctx); err != nil {
		s.logger.Warn("workspace: catalog refresh failed", slog.String("error", err.Error()))
	}
}

func (s *Service) nudge(view editor.View, set *render.Set) {
	v, ok := view.(*View)
	if !ok || v.id == "" {
		return
	}
	s.pub.Publish(sse.Event{Type: sse.TypeNudge, View: v.id, Data: map[string]uint64{"version": set.Version()}})
}
