// Package matcher ranks catalog pages against a text fragment using a fixed
// cascade of strategies, from exact to fuzzy.
package matcher

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/models"
)

// strategy returns the pages matching q. q is trimmed but not case-folded.
type strategy struct {
	name  string
	match func(pages []models.Page, q string) []models.Page
}

// cascade is evaluated in order; earlier strategies rank higher.
var cascade = []strategy{
	{"exact", exact},
	{"prefix", prefix},
	{"substring", substring},
	{"compact", compact},
	{"wildcard", wildcard},
	{"words", words},
}

var (
	compactStrip = strings.NewReplacer(" ", "", "-", "", ".", "", "_", "")
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// Lookup returns pages matching query, most relevant first, with no two
// entries sharing path and name. Queries of one character or less match nothing.
func Lookup(pages []models.Page, query string) []models.Page {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) <= 1 {
		return nil
	}

	var all []models.Page
	for _, s := range cascade {
		all = append(all, s.match(pages, q)...)
	}
	return dedup(all)
}

func exact(pages []models.Page, q string) []models.Page {
	lq := strings.ToLower(q)
	for _, p := range pages {
		if strings.ToLower(p.Name) == lq {
			return []models.Page{p}
		}
	}
	return nil
}

func prefix(pages []models.Page, q string) []models.Page {
	lq := strings.ToLower(q)
	return filterSorted(pages, func(p models.Page) bool {
		return strings.HasPrefix(strings.ToLower(p.Name), lq)
	})
}

func substring(pages []models.Page, q string) []models.Page {
	lq := strings.ToLower(q)
	return filterSorted(pages, func(p models.Page) bool {
		return strings.Contains(strings.ToLower(p.Name), lq)
	})
}

func compact(pages []models.Page, q string) []models.Page {
	cq := compactStrip.Replace(strings.ToLower(q))
	if cq == "" {
		return nil
	}
	return filterSorted(pages, func(p models.Page) bool {
		return strings.Contains(compactStrip.Replace(strings.ToLower(p.Name)), cq)
	})
}

func wildcard(pages []models.Page, q string) []models.Page {
	re, err := wildcardPattern(q)
	if err != nil {
		return nil
	}
	return filterSorted(pages, func(p models.Page) bool {
		return re.MatchString(p.Name)
	})
}

// wildcardPattern turns q into a case-insensitive expression. Metacharacters
// are escaped first; each escaped period then becomes a literal period
// followed by any run, and each whitespace run matches anything.
func wildcardPattern(q string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)")
	for i, field := range spaceRunRe.Split(q, -1) {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(strings.ReplaceAll(regexp.QuoteMeta(field), `\.`, `\..*`))
	}
	return regexp.Compile(b.String())
}

func words(pages []models.Page, q string) []models.Page {
	ws := strings.Split(strings.ToLower(q), " ")
	return filterSorted(pages, func(p models.Page) bool {
		name := strings.ToLower(p.Name)
		for _, w := range ws {
			if !strings.Contains(name, w) {
				return false
			}
		}
		return true
	})
}

// filterSorted keeps pages satisfying keep, shortest name first.
func filterSorted(pages []models.Page, keep func(models.Page) bool) []models.Page {
	var out []models.Page
	for _, p := range pages {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Name) < utf8.RuneCountInString(out[j].Name)
	})
	return out
}

func dedup(pages []models.Page) []models.Page {
	if len(pages) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(pages))
	out := pages[:0:0]
	for _, p := range pages {
		if _, ok := seen[p.Key()]; ok {
			continue
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Snapshotter supplies the catalog a lookup runs against.
type Snapshotter interface {
	Snapshot() *catalog.Catalog
}

// Matcher runs lookups against the current catalog and remembers the most
// recent result.
type Matcher struct {
	catalog Snapshotter

	mu   sync.Mutex
	last []models.Page
}

// New creates a matcher reading from c.
func New(c Snapshotter) *Matcher {
	return &Matcher{catalog: c}
}

// Lookup ranks the current catalog against query and replaces the result
// returned by Last.
func (m *Matcher) Lookup(query string) []models.Page {
	res := Lookup(m.catalog.Snapshot().Pages(), query)
	m.mu.Lock()
	m.last = res
	m.mu.Unlock()
	return res
}

// Last returns the result of the most recent Lookup.
func (m *Matcher) Last() []models.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Page(nil), m.last...)
}
