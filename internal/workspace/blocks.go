package workspace

import (
	"strings"

	"github.com/starford/tether/internal/editor"
)

// LineBlocks converts the zero-based, inclusive line window [first, last]
// of content into the visible block it covers. Lines past the end are
// clamped. A window holding no line yields an empty, non-nil slice: nothing
// is visible.
func LineBlocks(content string, first, last int) []editor.Block {
	if first < 0 {
		first = 0
	}
	if last < first || content == "" {
		return []editor.Block{}
	}

	from, line := -1, 0
	pos := 0
	for {
		if line == first {
			from = pos
		}
		nl := strings.IndexByte(content[pos:], '\n')
		if nl < 0 {
			if from < 0 {
				return []editor.Block{}
			}
			return []editor.Block{{From: from, To: len(content)}}
		}
		end := pos + nl
		if line == last {
			return []editor.Block{{From: from, To: end}}
		}
		pos = end + 1
		line++
	}
}
