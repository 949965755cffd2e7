package editor

// MarkData is the metadata a mark carries so a click can be mapped back to
// the match that produced it.
type MarkData struct {
	Keyword string `json:"keyword"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Mark is a visual annotation over [From, To).
type Mark struct {
	From  int      `json:"from"`
	To    int      `json:"to"`
	Class string   `json:"class"`
	Data  MarkData `json:"data"`
}

// Mouse buttons as reported by DOM MouseEvent.button.
const (
	ButtonPrimary   = 0
	ButtonAuxiliary = 1
	ButtonSecondary = 2
)

// Click is a pointer click delivered by the host. Classes lists the class
// names on the clicked element; Data is the metadata stored on it, if any.
type Click struct {
	Button  int      `json:"button"`
	Classes []string `json:"classes"`
	Data    MarkData `json:"data"`
}

// HasClass reports whether the clicked element carries class.
func (c Click) HasClass(class string) bool {
	for _, cl := range c.Classes {
		if cl == class {
			return true
		}
	}
	return false
}
