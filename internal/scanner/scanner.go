// Package scanner locates page names inside visible text while skipping
// regions that must never be turned into links: code, existing links, tags
// and URLs.
package scanner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/tether/internal/models"
)

// Ignore alternatives, highest priority first.
const (
	leadingFence = "\\A[ \\t]*```[\\s\\S]*?(?:```|\\z)"
	fence        = "```[\\s\\S]*?(?:```|\\z)"
	brackets     = `\[\[[^\]\n]*\]\]|\[[^\]\n]*\]`
	inlineCode   = "`[^`\\n]*`"
	hashtag      = `#[^\s#]+`
	bareURL      = `(?:https?://|www\.)\S+`
)

var (
	ignoreRe = regexp.MustCompile(strings.Join([]string{
		leadingFence, fence, brackets, inlineCode, hashtag, bareURL,
	}, "|"))

	// openFenceRe ignores text up to the first closing fence, for blocks
	// that start inside a fence opened above the scanned window.
	openFenceRe = regexp.MustCompile(strings.Join([]string{
		"\\A[\\s\\S]*?(?:```|\\z)", fence, brackets, inlineCode, hashtag, bareURL,
	}, "|"))
)

// OverlapPolicy decides what happens when spans from different keywords overlap.
type OverlapPolicy int

const (
	// OverlapFirst keeps the earliest span (ties go to catalog order) and
	// drops any later span overlapping a kept one.
	OverlapFirst OverlapPolicy = iota
	// OverlapAll keeps every span.
	OverlapAll
)

// ParseOverlapPolicy maps a config value to a policy. Unknown values yield OverlapFirst.
func ParseOverlapPolicy(s string) OverlapPolicy {
	if strings.EqualFold(s, "all") {
		return OverlapAll
	}
	return OverlapFirst
}

type options struct {
	openFence bool
	overlap   OverlapPolicy
}

// Option configures Scan.
type Option func(*options)

// WithOpenFence marks the text as starting inside an unterminated fence.
func WithOpenFence(open bool) Option {
	return func(o *options) {
		o.openFence = open
	}
}

// WithOverlap sets the overlap policy.
func WithOverlap(p OverlapPolicy) Option {
	return func(o *options) {
		o.overlap = p
	}
}

// FilterKeywords returns the pages whose name occurs in docLower, which must
// already be lower-cased. Catalog order is preserved.
func FilterKeywords(docLower string, pages []models.Page) []models.Page {
	var out []models.Page
	for _, p := range pages {
		if p.Name == "" {
			continue
		}
		if strings.Contains(docLower, strings.ToLower(p.Name)) {
			out = append(out, p)
		}
	}
	return out
}

// Scan returns every case-insensitive occurrence of every keyword in text,
// outside ignored regions, sorted by start offset.
func Scan(text string, keywords []models.Page, opts ...Option) []models.Span {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return New(keywords, o.overlap).Scan(text, o.openFence)
}

// Scanner holds compiled keyword patterns so one render pass can scan many
// blocks without recompiling.
type Scanner struct {
	patterns []keywordPattern
	overlap  OverlapPolicy
}

// New compiles keywords for scanning.
func New(keywords []models.Page, overlap OverlapPolicy) *Scanner {
	return &Scanner{patterns: compileKeywords(keywords), overlap: overlap}
}

// Scan scans one block of text. openFence reports that the block begins
// inside a fenced code block opened before it.
func (s *Scanner) Scan(text string, openFence bool) []models.Span {
	if text == "" || len(s.patterns) == 0 {
		return nil
	}
	ignore := ignoreRe
	if openFence {
		ignore = openFenceRe
	}

	var spans []models.Span
	base := 0
	for _, loc := range ignore.FindAllStringIndex(text, -1) {
		spans = appendMatches(spans, text[base:loc[0]], base, s.patterns)
		base = loc[1]
	}
	spans = appendMatches(spans, text[base:], base, s.patterns)

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	if s.overlap == OverlapFirst {
		spans = dropOverlaps(spans)
	}
	return spans
}

type keywordPattern struct {
	keyword string
	re      *regexp.Regexp
}

func compileKeywords(keywords []models.Page) []keywordPattern {
	out := make([]keywordPattern, 0, len(keywords))
	for _, k := range keywords {
		if k.Name == "" {
			continue
		}
		out = append(out, keywordPattern{
			keyword: k.Name,
			re:      regexp.MustCompile("(?i)" + regexp.QuoteMeta(k.Name)),
		})
	}
	return out
}

func appendMatches(spans []models.Span, part string, base int, patterns []keywordPattern) []models.Span {
	if part == "" {
		return spans
	}
	for _, p := range patterns {
		for _, m := range p.re.FindAllStringIndex(part, -1) {
			spans = append(spans, models.Span{
				Start:   base + m[0],
				End:     base + m[1],
				Keyword: p.keyword,
			})
		}
	}
	return spans
}

// dropOverlaps expects spans sorted by start.
func dropOverlaps(spans []models.Span) []models.Span {
	out := spans[:0]
	end := -1
	for _, s := range spans {
		if s.Start < end {
			continue
		}
		out = append(out, s)
		end = s.End
	}
	return out
}

// OpensFence reports whether prefix leaves a code fence open, i.e. whether
// text following it starts inside a fenced block.
func OpensFence(prefix string) bool {
	return strings.Count(prefix, "```")%2 == 1
}
