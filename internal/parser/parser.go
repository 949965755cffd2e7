// Package parser strips frontmatter from Markdown content and extracts its
// wikilink targets.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]\n]+?)\]\]`)
	codeRe     = regexp.MustCompile("```[\\s\\S]*?(?:```|\\z)|`[^`\\n]*`")
)

// Link is a wikilink target and the number of times a note references it.
type Link struct {
	Target string
	Count  int
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Body  string
	Links []Link
}

// Parse strips frontmatter from the body and collects wikilink targets.
// Links inside frontmatter are not counted.
func Parse(data []byte) (*Result, error) {
	body := stripFrontmatter(data)
	return &Result{
		Body:  body,
		Links: extractLinks(body),
	}, nil
}

// stripFrontmatter drops a leading YAML block between --- delimiters. A block
// that is not valid YAML is not frontmatter and stays in the body.
func stripFrontmatter(data []byte) string {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return string(data)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(rest[:idx], &node); err != nil {
		return string(data)
	}
	return strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
}

// extractLinks returns link targets in first-seen order with reference counts.
// Links inside code are not links.
func extractLinks(body string) []Link {
	body = codeRe.ReplaceAllStringFunc(body, func(s string) string {
		return strings.Repeat(" ", len(s))
	})

	index := make(map[string]int)
	var out []Link
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := Target(m[1])
		if target == "" {
			continue
		}
		if i, ok := index[target]; ok {
			out[i].Count++
			continue
		}
		index[target] = len(out)
		out = append(out, Link{Target: target, Count: 1})
	}
	return out
}

// Target normalises the inside of a wikilink to the linked note name:
// [[Target#Section|Alias]] -> Target. Same-note links yield "".
func Target(raw string) string {
	if i := strings.Index(raw, "|"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)
	return strings.TrimSuffix(raw, ".md")
}
