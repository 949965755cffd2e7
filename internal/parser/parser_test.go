package parser

import (
	"reflect"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\n---\n# Hello\nSee [[World]].\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Body != "# Hello\nSee [[World]].\n" {
		t.Errorf("body = %q", r.Body)
	}
	if len(r.Links) != 1 || r.Links[0].Target != "World" {
		t.Errorf("links = %v", r.Links)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := "# Just a heading\nSome text.\n"
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Body != input {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_FrontmatterLinksIgnored(t *testing.T) {
	r, err := Parse([]byte("---\nrelated: \"[[Hidden]]\"\n---\nSee [[Shown]].\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Links) != 1 || r.Links[0].Target != "Shown" {
		t.Errorf("links = %v", r.Links)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Body != input {
		t.Errorf("invalid YAML should stay in the body, got %q", r.Body)
	}
}

func TestExtractLinks_CountsAndAliases(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A#Intro]] and ![[Note B]]."
	got := extractLinks(body)
	want := []Link{{Target: "Note A", Count: 2}, {Target: "Note B", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links = %v, want %v", got, want)
	}
}

func TestExtractLinks_SkipsCodeAndEmpty(t *testing.T) {
	body := "`[[Inline]]`\n```\n[[Fenced]]\n```\n[[ ]] [[#Heading]] [[Real.md]]"
	got := extractLinks(body)
	want := []Link{{Target: "Real", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links = %v, want %v", got, want)
	}
}

func TestTarget(t *testing.T) {
	cases := map[string]string{
		"Page":                "Page",
		" Page | shown ":      "Page",
		"folder/Page#Section": "folder/Page",
		"#Section":            "",
	}
	for in, want := range cases {
		if got := Target(in); got != want {
			t.Errorf("Target(%q) = %q, want %q", in, got, want)
		}
	}
}
