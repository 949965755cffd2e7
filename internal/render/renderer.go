// Package render turns scanned spans into the decoration set shown by a view,
// recomputing only when the document, the viewport, or the active file changed.
package render

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/editor"
	"github.com/starford/tether/internal/scanner"
)

// DefaultClass is the class name carried by every mark.
const DefaultClass = "tether-unlinked"

// NudgeFunc is called shortly after a pass that produced a new set, so hosts
// whose update ordering needs it can force one more repaint.
type NudgeFunc func(view editor.View, set *Set)

// Snapshotter supplies the catalog a render pass reads.
type Snapshotter interface {
	Snapshot() *catalog.Catalog
}

// Renderer holds what every render pass shares.
type Renderer struct {
	catalog    Snapshotter
	class      string
	overlap    scanner.OverlapPolicy
	nudge      NudgeFunc
	nudgeDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClass sets the class name put on marks.
func WithClass(class string) Option {
	return func(r *Renderer) {
		if class != "" {
			r.class = class
		}
	}
}

// WithOverlap sets how overlapping spans are resolved.
func WithOverlap(p scanner.OverlapPolicy) Option {
	return func(r *Renderer) {
		r.overlap = p
	}
}

// WithNudge schedules fn delay after each pass that replaced a set.
func WithNudge(delay time.Duration, fn NudgeFunc) Option {
	return func(r *Renderer) {
		r.nudge = fn
		r.nudgeDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// New creates a renderer reading pages from c.
func New(c Snapshotter, opts ...Option) *Renderer {
	r := &Renderer{
		catalog: c,
		class:   DefaultClass,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Class returns the mark class name.
func (r *Renderer) Class() string { return r.class }

// Build computes a decoration set for the view's visible blocks. A view
// without a document yields an empty set.
func (r *Renderer) Build(view editor.View) []editor.Mark {
	doc, ok := view.Doc()
	if !ok {
		return nil
	}
	keywords := scanner.FilterKeywords(strings.ToLower(doc), r.catalog.Snapshot().Pages())
	if len(keywords) == 0 {
		return nil
	}
	sc := scanner.New(keywords, r.overlap)

	var marks []editor.Mark
	for _, b := range view.VisibleBlocks() {
		from, to := clamp(b.From, len(doc)), clamp(b.To, len(doc))
		if from >= to {
			continue
		}
		text := view.SliceDoc(from, to)
		open := scanner.OpensFence(doc[:from])
		for _, s := range sc.Scan(text, open) {
			start, end := from+s.Start, from+s.End
			marks = append(marks, editor.Mark{
				From:  start,
				To:    end,
				Class: r.class,
				Data:  editor.MarkData{Keyword: s.Keyword, Start: start, End: end},
			})
		}
	}
	return marks
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}

// Decorator owns the decoration set of one view.
type Decorator struct {
	r    *Renderer
	view editor.View

	mu      sync.Mutex // serialises passes for this view
	current atomic.Pointer[Set]
}

// Attach creates a decorator for view, starting from the empty set.
func (r *Renderer) Attach(view editor.View) *Decorator {
	d := &Decorator{r: r, view: view}
	d.current.Store(Empty)
	return d
}

// Decorations returns the current set.
func (d *Decorator) Decorations() *Set {
	return d.current.Load()
}

// Update recomputes the set when u can affect it, replacing the previous set
// atomically. Otherwise the previous set is returned untouched.
func (d *Decorator) Update(u editor.Update) *Set {
	if !u.NeedsRender() {
		return d.current.Load()
	}
	if f, ok := d.view.(editor.Focuser); ok && !f.HasFocus() && !u.FileOpened {
		return d.current.Load()
	}

	d.mu.Lock()
	prev := d.current.Load()
	next := &Set{version: prev.version + 1, marks: d.r.Build(d.view)}
	d.current.Store(next)
	d.mu.Unlock()

	d.r.logger.Debug("render: decorations replaced",
		slog.Uint64("version", next.version),
		slog.Int("marks", next.Len()))

	if d.r.nudge != nil {
		view, fn := d.view, d.r.nudge
		time.AfterFunc(d.r.nudgeDelay, func() {
			// A newer pass supersedes this one's nudge.
			if d.current.Load() == next {
				fn(view, next)
			}
		})
	}
	return next
}
