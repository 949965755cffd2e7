//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_view.go -package=mocks github.com/starford/tether/internal/editor View

// Package editor describes the capabilities Tether needs from a host editing
// surface: visible line blocks, document slicing, and edit dispatch.
package editor

// View is an open editor surface. Offsets are byte offsets into the document.
type View interface {
	// Doc returns the full document text. ok is false when the view is not
	// backed by a document.
	Doc() (text string, ok bool)
	// VisibleBlocks returns the line blocks currently on screen, in document order.
	VisibleBlocks() []Block
	// SliceDoc returns the document text in [from, to).
	SliceDoc(from, to int) string
	// DispatchEdit atomically replaces [From, To) with Insert.
	DispatchEdit(edit Edit) error
}

// Focuser is implemented by views that can report whether they are the
// active one.
type Focuser interface {
	HasFocus() bool
}

// Block is a visible line block [From, To).
type Block struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Edit replaces [From, To) with Insert.
type Edit struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Insert string `json:"insert"`
}

// Update describes what changed in a view since the last render pass.
type Update struct {
	DocChanged      bool
	ViewportChanged bool
	FileOpened      bool
}

// NeedsRender reports whether the update can change the decoration set.
// Selection and cursor movement alone never do.
func (u Update) NeedsRender() bool {
	return u.DocChanged || u.ViewportChanged || u.FileOpened
}
