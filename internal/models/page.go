// Package models defines the domain types for Tether.
package models

import "time"

// Page is a named link target: a vault document, or a reference string that
// was linked to but never resolved to a document.
type Page struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Key identifies a page by path and name together.
func (p Page) Key() string {
	return p.Path + "\x00" + p.Name
}

// Document is a note known to the vault index.
type Document struct {
	Name string `json:"name"` // base name without extension
	Path string `json:"path"`
}

// NoteMetadata is a lightweight representation returned by storage listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Span is an occurrence of a keyword in scanned text. Offsets are byte
// offsets relative to the scanned text.
type Span struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Keyword string `json:"keyword"`
}
