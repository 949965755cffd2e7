package render

import (
	"encoding/json"

	"github.com/starford/tether/internal/editor"
)

// Set is an immutable collection of marks for one view, ordered by From.
type Set struct {
	version uint64
	marks   []editor.Mark
}

// Empty is the set every view starts with.
var Empty = &Set{}

// Version increases each time a render pass replaces a view's set.
func (s *Set) Version() uint64 { return s.version }

// Len returns the number of marks.
func (s *Set) Len() int { return len(s.marks) }

// Marks returns a copy of the marks.
func (s *Set) Marks() []editor.Mark {
	return append([]editor.Mark(nil), s.marks...)
}

// At returns the first mark covering pos. Marks may nest or repeat when
// overlaps are kept, so only From is ordered.
func (s *Set) At(pos int) (editor.Mark, bool) {
	for _, m := range s.marks {
		if m.From > pos {
			break
		}
		if pos < m.To {
			return m, true
		}
	}
	return editor.Mark{}, false
}

// MarshalJSON renders the set as {"version": n, "marks": [...]}.
func (s *Set) MarshalJSON() ([]byte, error) {
	marks := s.marks
	if marks == nil {
		marks = []editor.Mark{}
	}
	return json.Marshal(struct {
		Version uint64        `json:"version"`
		Marks   []editor.Mark `json:"marks"`
	}{s.version, marks})
}
