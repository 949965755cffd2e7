package scanner

import (
	"reflect"
	"strings"
	"testing"

	"github.com/starford/tether/internal/models"
)

func kw(names ...string) []models.Page {
	out := make([]models.Page, len(names))
	for i, n := range names {
		out[i] = models.Page{Name: n, Path: strings.ToLower(n) + ".md"}
	}
	return out
}

func TestFilterKeywords(t *testing.T) {
	pages := kw("Keep", "Absent", "GitHub", "")
	got := FilterKeywords(strings.ToLower("We Keep code on github"), pages)
	if len(got) != 2 || got[0].Name != "Keep" || got[1].Name != "GitHub" {
		t.Errorf("FilterKeywords = %v", got)
	}
}

func TestScan_SkipsWikilink(t *testing.T) {
	text := "see [[Other]] and GitHub"
	spans := Scan(text, kw("GitHub", "Other"))
	want := []models.Span{{Start: 18, End: 24, Keyword: "GitHub"}}
	if !reflect.DeepEqual(spans, want) {
		t.Fatalf("spans = %v, want %v", spans, want)
	}
	if text[spans[0].Start:spans[0].End] != "GitHub" {
		t.Errorf("span text = %q", text[spans[0].Start:spans[0].End])
	}
}

func TestScan_CaseInsensitiveAllOccurrences(t *testing.T) {
	text := "keep KEEP Keep"
	spans := Scan(text, kw("Keep"))
	if len(spans) != 3 {
		t.Fatalf("len = %d, want 3 (%v)", len(spans), spans)
	}
	for i, s := range spans {
		if s.Start != i*5 || s.End != i*5+4 {
			t.Errorf("span %d = %+v", i, s)
		}
		if s.Keyword != "Keep" {
			t.Errorf("keyword = %q, want the page name", s.Keyword)
		}
	}
}

func TestScan_IgnoredRegions(t *testing.T) {
	cases := map[string]string{
		"fenced inline":     "```foo```",
		"fenced multi-line": "intro\n```go\nfoo := 1\n```\n",
		"single bracket":    "a [foo] b",
		"inline code":       "run `foo` now",
		"hashtag":           "tagged #foo today",
		"nested hashtag":    "tagged #area/foo",
		"url":               "see https://example.com/foo for more",
		"www url":           "see www.foo.org",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			if spans := Scan(text, kw("foo")); len(spans) != 0 {
				t.Errorf("Scan(%q) = %v, want none", text, spans)
			}
		})
	}
}

func TestScan_OutsideIgnoredRegionStillMatches(t *testing.T) {
	text := "`foo` then foo"
	spans := Scan(text, kw("foo"))
	if len(spans) != 1 || spans[0].Start != 11 {
		t.Errorf("spans = %v, want one at 11", spans)
	}
}

func TestScan_UnterminatedFenceAtStart(t *testing.T) {
	text := "```\nfoo bar\nstill code foo"
	spans := Scan(text, kw("foo", "bar"))
	if len(spans) != 0 {
		t.Errorf("spans = %v, want none", spans)
	}
}

func TestScan_UnterminatedFenceMidText(t *testing.T) {
	text := "foo before\n```\nfoo inside"
	spans := Scan(text, kw("foo"))
	if len(spans) != 1 || spans[0].Start != 0 {
		t.Errorf("spans = %v, want only the leading foo", spans)
	}
}

func TestScan_OpenFence(t *testing.T) {
	text := "foo in code\n```\nfoo outside"
	spans := Scan(text, kw("foo"), WithOpenFence(true))
	if len(spans) != 1 || spans[0].Start != 16 {
		t.Errorf("spans = %v, want one at 16", spans)
	}
}

func TestScan_UnbalancedBracketDoesNotSwallowLines(t *testing.T) {
	text := "a [broken\nfoo here"
	spans := Scan(text, kw("foo"))
	if len(spans) != 1 {
		t.Errorf("spans = %v, want one", spans)
	}
}

func TestScan_Empty(t *testing.T) {
	if spans := Scan("", kw("foo")); spans != nil {
		t.Errorf("spans = %v, want nil", spans)
	}
	if spans := Scan("foo", nil); spans != nil {
		t.Errorf("spans = %v, want nil", spans)
	}
}

func TestScan_SortedByStart(t *testing.T) {
	text := "beta alpha beta"
	spans := Scan(text, kw("alpha", "beta"))
	var starts []int
	for _, s := range spans {
		starts = append(starts, s.Start)
	}
	if !reflect.DeepEqual(starts, []int{0, 5, 11}) {
		t.Errorf("starts = %v", starts)
	}
}

func TestScan_OverlapFirstKeepsFirstDiscovered(t *testing.T) {
	text := "Project Alpha kickoff"
	spans := Scan(text, kw("Project", "Project Alpha", "Alpha"))
	want := []models.Span{{Start: 0, End: 7, Keyword: "Project"}, {Start: 8, End: 13, Keyword: "Alpha"}}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %v, want %v", spans, want)
	}
}

func TestScan_OverlapAllKeepsDuplicates(t *testing.T) {
	text := "Project Alpha kickoff"
	spans := Scan(text, kw("Project", "Project Alpha", "Alpha"), WithOverlap(OverlapAll))
	if len(spans) != 3 {
		t.Fatalf("spans = %v, want 3", spans)
	}
	if spans[0].Keyword != "Project" || spans[1].Keyword != "Project Alpha" {
		t.Errorf("ties should keep keyword order: %v", spans)
	}
}

func TestScan_RegexMetaInKeyword(t *testing.T) {
	text := "learning C++ (again)"
	spans := Scan(text, kw("C++"))
	if len(spans) != 1 || spans[0].Start != 9 {
		t.Errorf("spans = %v", spans)
	}
}

func TestScanner_ReusedAcrossBlocks(t *testing.T) {
	s := New(kw("foo"), OverlapFirst)
	if got := s.Scan("foo", false); len(got) != 1 {
		t.Errorf("first block: %v", got)
	}
	if got := s.Scan("nothing", false); len(got) != 0 {
		t.Errorf("second block: %v", got)
	}
}

func TestOpensFence(t *testing.T) {
	if OpensFence("text\n") {
		t.Error("no fence should not be open")
	}
	if !OpensFence("text\n```go\ncode\n") {
		t.Error("single fence should be open")
	}
	if OpensFence("```\ncode\n```\n") {
		t.Error("closed fence should not be open")
	}
}

func TestParseOverlapPolicy(t *testing.T) {
	if ParseOverlapPolicy("ALL") != OverlapAll {
		t.Error("all should parse")
	}
	if ParseOverlapPolicy("first") != OverlapFirst || ParseOverlapPolicy("") != OverlapFirst {
		t.Error("first is the default")
	}
}
