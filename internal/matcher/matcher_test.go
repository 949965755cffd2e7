package matcher

import (
	"reflect"
	"testing"

	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/models"
)

func names(pages []models.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Name
	}
	return out
}

func TestCascadeOrder(t *testing.T) {
	want := []string{"exact", "prefix", "substring", "compact", "wildcard", "words"}
	var got []string
	for _, s := range cascade {
		got = append(got, s.name)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cascade = %v, want %v", got, want)
	}
}

func TestLookup_ShortQuery(t *testing.T) {
	pages := []models.Page{{Name: "A", Path: "a.md"}}
	for _, q := range []string{"", " ", "a", "  a  "} {
		if got := Lookup(pages, q); len(got) != 0 {
			t.Errorf("Lookup(%q) = %v, want empty", q, got)
		}
	}
}

func TestLookup_ExactFirst(t *testing.T) {
	pages := []models.Page{
		{Name: "Go Tips", Path: "go-tips.md"},
		{Name: "Golang", Path: "golang.md"},
		{Name: "go", Path: "go.md"},
	}
	got := Lookup(pages, "GO")
	if len(got) == 0 || got[0].Name != "go" {
		t.Fatalf("first result = %v, want go", got)
	}
}

func TestLookup_PrefixShortestFirst(t *testing.T) {
	pages := []models.Page{
		{Name: "Project Alpha", Path: "project-alpha.md"},
		{Name: "Project", Path: catalog.UnresolvedPath},
	}
	got := Lookup(pages, "Proj")
	want := []string{"Project", "Project Alpha"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("Lookup = %v, want %v", names(got), want)
	}
}

func TestLookup_StrategyOrderBeatsLength(t *testing.T) {
	pages := []models.Page{
		{Name: "my notes", Path: "a.md"},       // substring only
		{Name: "notes archive", Path: "b.md"},  // prefix
	}
	got := Lookup(pages, "notes")
	want := []string{"notes archive", "my notes"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("Lookup = %v, want %v", names(got), want)
	}
}

func TestLookup_Compact(t *testing.T) {
	pages := []models.Page{{Name: "road-map_2024.v2", Path: "r.md"}}
	got := Lookup(pages, "Road Map 2024")
	if len(got) != 1 {
		t.Fatalf("compact strategy should match, got %v", got)
	}
}

func TestLookup_CompactStrippedEmpty(t *testing.T) {
	pages := []models.Page{{Name: "anything", Path: "a.md"}}
	if got := Lookup(pages, "--"); len(got) != 0 {
		t.Errorf("Lookup(--) = %v, want empty", got)
	}
}

func TestLookup_Wildcard(t *testing.T) {
	pages := []models.Page{
		{Name: "Meeting notes 2024", Path: "m.md"},
		{Name: "Unrelated", Path: "u.md"},
	}
	got := Lookup(pages, "meet   2024")
	if len(got) != 1 || got[0].Name != "Meeting notes 2024" {
		t.Errorf("whitespace wildcard: got %v", got)
	}
}

func TestLookup_WildcardPeriod(t *testing.T) {
	pages := []models.Page{
		{Name: "v1.2 release plan", Path: "r.md"},
		{Name: "v1 2 release", Path: "s.md"},
	}
	// A period stays a period and may be followed by anything.
	got := Lookup(pages, "v1.release")
	if len(got) != 1 || got[0].Path != "r.md" {
		t.Errorf("period wildcard: got %v", got)
	}

	re, err := wildcardPattern("v1.2")
	if err != nil {
		t.Fatalf("wildcardPattern: %v", err)
	}
	if re.String() != `(?i)v1\..*2` {
		t.Errorf("pattern = %q", re)
	}
	if re.MatchString("v1 2") {
		t.Errorf("pattern %q matched without a period", re)
	}
}

func TestWildcardPattern_EscapesMeta(t *testing.T) {
	re, err := wildcardPattern("c++ (draft)")
	if err != nil {
		t.Fatalf("wildcardPattern: %v", err)
	}
	if !re.MatchString("C++ notes (draft)") {
		t.Errorf("pattern %q should match", re)
	}
	if re.MatchString("cxx draft") {
		t.Errorf("pattern %q should not treat + or ( as operators", re)
	}
}

func TestLookup_FuzzyWords(t *testing.T) {
	pages := []models.Page{
		{Name: "Reading list for summer", Path: "r.md"},
		{Name: "Summer", Path: "s.md"},
	}
	got := Lookup(pages, "summer reading")
	if len(got) != 1 || got[0].Name != "Reading list for summer" {
		t.Errorf("words strategy: got %v", got)
	}
}

func TestLookup_NoDuplicates(t *testing.T) {
	pages := []models.Page{
		{Name: "Keep", Path: "keep.md"},
		{Name: "Keep", Path: catalog.UnresolvedPath},
		{Name: "Keepsake", Path: "keepsake.md"},
	}
	got := Lookup(pages, "keep")
	seen := map[string]bool{}
	for _, p := range got {
		if seen[p.Key()] {
			t.Errorf("duplicate %v in %v", p, got)
		}
		seen[p.Key()] = true
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3 (%v)", len(got), got)
	}
	if got[0].Path != "keep.md" {
		t.Errorf("resolved page should win the exact slot, got %v", got[0])
	}
}

func TestLookup_Idempotent(t *testing.T) {
	pages := []models.Page{
		{Name: "Alpha Beta", Path: "ab.md"},
		{Name: "Alpha", Path: "a.md"},
		{Name: "Beta Alpha", Path: "ba.md"},
	}
	first := Lookup(pages, "alpha")
	second := Lookup(pages, "alpha")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %v vs %v", first, second)
	}
}

type staticCatalog struct{ c *catalog.Catalog }

func (s staticCatalog) Snapshot() *catalog.Catalog { return s.c }

func TestMatcher_LastReplaced(t *testing.T) {
	m := New(staticCatalog{catalog.New([]models.Page{
		{Name: "Alpha", Path: "a.md"},
		{Name: "Beta", Path: "b.md"},
	})})

	if len(m.Last()) != 0 {
		t.Fatalf("Last before any lookup should be empty")
	}
	m.Lookup("alpha")
	if got := m.Last(); len(got) != 1 || got[0].Name != "Alpha" {
		t.Errorf("Last = %v, want [Alpha]", got)
	}
	m.Lookup("beta")
	if got := m.Last(); len(got) != 1 || got[0].Name != "Beta" {
		t.Errorf("Last = %v, want [Beta]", got)
	}
	m.Lookup("x")
	if got := m.Last(); len(got) != 0 {
		t.Errorf("Last after short query = %v, want empty", got)
	}
}
