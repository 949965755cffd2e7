package workspace

import (
	"fmt"
	"sync"

	"github.com/starford/tether/internal/apperr"
	"github.com/starford/tether/internal/editor"
	"github.com/starford/tether/internal/render"
)

// Selection is a cursor or range inside a view.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// View is an open note held server-side. It implements editor.View and
// editor.Focuser so the renderer and the click handler can drive it.
type View struct {
	id   string
	path string
	svc  *Service

	mu        sync.RWMutex
	content   string
	blocks    []editor.Block // nil until a viewport is set: the whole document is visible
	focused   bool
	selection Selection
	closed    bool

	deco *render.Decorator
}

var (
	_ editor.View    = (*View)(nil)
	_ editor.Focuser = (*View)(nil)
)

// ID returns the view id.
func (v *View) ID() string { return v.id }

// Path returns the vault path of the note shown by the view.
func (v *View) Path() string { return v.path }

// Content returns the current document text.
func (v *View) Content() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.content
}

// Doc implements editor.View. A closed view has no document.
func (v *View) Doc() (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return "", false
	}
	return v.content, true
}

// VisibleBlocks implements editor.View.
func (v *View) VisibleBlocks() []editor.Block {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.blocks == nil {
		return []editor.Block{{From: 0, To: len(v.content)}}
	}
	out := make([]editor.Block, len(v.blocks))
	copy(out, v.blocks)
	return out
}

// SliceDoc implements editor.View. Out-of-range offsets are clamped.
func (v *View) SliceDoc(from, to int) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	from, to = clampRange(from, to, len(v.content))
	return v.content[from:to]
}

// HasFocus implements editor.Focuser.
func (v *View) HasFocus() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.focused
}

// Selection returns the current selection.
func (v *View) Selection() Selection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selection
}

// DispatchEdit implements editor.View: the replacement is written to the
// vault and re-indexed before the view's text changes.
func (v *View) DispatchEdit(e editor.Edit) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return fmt.Errorf("workspace: view %s: %w", v.id, apperr.ErrNoDocument)
	}
	if e.From < 0 || e.To < e.From || e.To > len(v.content) {
		v.mu.Unlock()
		return fmt.Errorf("workspace: edit [%d,%d) outside document of %d bytes", e.From, e.To, len(v.content))
	}
	next := v.content[:e.From] + e.Insert + v.content[e.To:]
	if err := v.svc.persist(v.path, next); err != nil {
		v.mu.Unlock()
		return err
	}
	v.content = next
	v.mu.Unlock()

	v.svc.edited(v, e)
	return nil
}

func (v *View) setContent(content string) {
	v.mu.Lock()
	v.content = content
	v.mu.Unlock()
}

func (v *View) setBlocks(blocks []editor.Block) {
	if blocks == nil {
		blocks = []editor.Block{}
	}
	v.mu.Lock()
	v.blocks = blocks
	v.mu.Unlock()
}

func (v *View) setFocus(focused bool) (changed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	changed = v.focused != focused
	v.focused = focused
	return changed
}

func (v *View) setSelection(s Selection) {
	v.mu.Lock()
	v.selection = s
	v.mu.Unlock()
}

func (v *View) close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func clampRange(from, to, n int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if from > to {
		from = to
	}
	return from, to
}
