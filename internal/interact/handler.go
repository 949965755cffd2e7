// Package interact turns a click on a decoration mark into a link edit.
package interact

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/starford/tether/internal/apperr"
	"github.com/starford/tether/internal/editor"
	"github.com/starford/tether/internal/models"
)

// State is the handler's dispatch state.
type State int32

const (
	Idle State = iota
	Dispatching
)

func (s State) String() string {
	if s == Dispatching {
		return "dispatching"
	}
	return "idle"
}

// Lookuper ranks pages for a keyword.
type Lookuper interface {
	Lookup(query string) []models.Page
}

// Result describes how a click was handled.
type Result struct {
	// Handled is false for clicks the handler ignores.
	Handled bool `json:"handled"`
	// Candidates is the full ranked list; the first entry was used.
	Candidates []models.Page `json:"candidates"`
	// Edit is set when the document was changed.
	Edit *editor.Edit `json:"edit,omitempty"`
}

// Handler reacts to clicks on marks carrying its class.
type Handler struct {
	matcher Lookuper
	class   string
	logger  *slog.Logger
	state   atomic.Int32
}

// New creates a handler for marks with the given class.
func New(m Lookuper, class string, logger *slog.Logger) *Handler {
	return &Handler{matcher: m, class: class, logger: logger}
}

// State reports whether a click is being processed.
func (h *Handler) State() State {
	return State(h.state.Load())
}

// FormatLink renders a wikilink to the page name.
func FormatLink(name string) string {
	return "[[" + name + "]]"
}

// Handle processes one click. Non-primary clicks, clicks on other elements,
// and clicks arriving while another is being dispatched are ignored.
func (h *Handler) Handle(view editor.View, c editor.Click) (Result, error) {
	if c.Button != editor.ButtonPrimary || !c.HasClass(h.class) {
		return Result{}, nil
	}
	if !h.state.CompareAndSwap(int32(Idle), int32(Dispatching)) {
		return Result{}, nil
	}
	defer h.state.Store(int32(Idle))

	data := c.Data
	res := Result{Handled: true, Candidates: h.matcher.Lookup(data.Keyword)}
	if len(res.Candidates) == 0 {
		h.logger.Debug("interact: no candidates", slog.String("keyword", data.Keyword))
		return res, nil
	}

	if data.Start < 0 || data.End < data.Start {
		return res, fmt.Errorf("interact: invalid mark range [%d,%d): %w", data.Start, data.End, apperr.ErrStaleMark)
	}
	if cur := view.SliceDoc(data.Start, data.End); !strings.EqualFold(cur, data.Keyword) {
		return res, fmt.Errorf("interact: %q at [%d,%d): %w", cur, data.Start, data.End, apperr.ErrStaleMark)
	}

	edit := editor.Edit{From: data.Start, To: data.End, Insert: FormatLink(res.Candidates[0].Name)}
	if err := view.DispatchEdit(edit); err != nil {
		return res, fmt.Errorf("interact: dispatch edit: %w", err)
	}
	res.Edit = &edit
	h.logger.Info("interact: linked",
		slog.String("keyword", data.Keyword),
		slog.String("target", res.Candidates[0].Name),
		slog.String("path", res.Candidates[0].Path))
	return res, nil
}
