package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tether/internal/editor"
	"github.com/starford/tether/internal/models"
	"github.com/starford/tether/internal/workspace"
)

// OpenViewRequest is the request body for opening a view.
type OpenViewRequest struct {
	Path string `json:"path" example:"notes/today.md" validate:"required"`
}

// Validate implements validation.Validatable.
func (r *OpenViewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
	)
}

// ViewportRequest sets the visible part of a view, either as explicit byte
// blocks or as an inclusive line window.
type ViewportRequest struct {
	Blocks    []editor.Block `json:"blocks,omitempty"`
	FirstLine *int           `json:"first_line,omitempty" example:"0"`
	LastLine  *int           `json:"last_line,omitempty" example:"40"`
}

// Validate implements validation.Validatable.
func (r *ViewportRequest) Validate() error {
	lines := r.FirstLine != nil || r.LastLine != nil
	return validation.ValidateStruct(r,
		validation.Field(&r.Blocks,
			validation.When(!lines, validation.Required.Error("blocks or first_line/last_line is required")),
			validation.When(lines, validation.Empty.Error("blocks and lines are exclusive")),
			validation.Each(validation.By(validBlock))),
		validation.Field(&r.FirstLine, validation.When(lines, validation.NotNil, validation.Min(0))),
		validation.Field(&r.LastLine, validation.When(lines, validation.NotNil, validation.Min(0))),
	)
}

func validBlock(v any) error {
	b, _ := v.(editor.Block)
	if b.From < 0 || b.To < b.From {
		return validation.NewError("validation_block_range", "block must satisfy 0 <= from <= to")
	}
	return nil
}

// ContentRequest replaces the text of a view.
type ContentRequest struct {
	Content *string `json:"content" example:"need to keep this"`
}

// Validate implements validation.Validatable.
func (r *ContentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.NotNil),
	)
}

// SelectionRequest moves the selection of a view.
type SelectionRequest struct {
	Anchor int `json:"anchor" example:"3"`
	Head   int `json:"head" example:"7"`
}

// Validate implements validation.Validatable.
func (r *SelectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Anchor, validation.Min(0)),
		validation.Field(&r.Head, validation.Min(0)),
	)
}

// FocusRequest sets whether a view has focus.
type FocusRequest struct {
	Focused *bool `json:"focused" example:"true"`
}

// Validate implements validation.Validatable.
func (r *FocusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Focused, validation.NotNil),
	)
}

// ClickRequest is a click on a view element. Class is the element's class
// name; keyword, start and end are the mark's data. When pos is set the mark
// under that offset is used instead.
type ClickRequest struct {
	Button  int    `json:"button" example:"0"`
	Class   string `json:"class" example:"tether-unlinked"`
	Keyword string `json:"keyword" example:"keep"`
	Start   int    `json:"start" example:"8"`
	End     int    `json:"end" example:"12"`
	Pos     *int   `json:"pos,omitempty" example:"9"`
}

// Validate implements validation.Validatable.
func (r *ClickRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Button, validation.Min(editor.ButtonPrimary), validation.Max(editor.ButtonSecondary)),
		validation.Field(&r.Start, validation.Min(0)),
		validation.Field(&r.End, validation.Min(r.Start)),
		validation.Field(&r.Pos, validation.Min(0)),
	)
}

// Click converts the request into an editor click.
func (r *ClickRequest) Click() editor.Click {
	var classes []string
	if r.Class != "" {
		classes = []string{r.Class}
	}
	return editor.Click{
		Button:  r.Button,
		Classes: classes,
		Data:    editor.MarkData{Keyword: r.Keyword, Start: r.Start, End: r.End},
	}
}

// ViewInfo is the view response type (aliased from the domain layer).
type ViewInfo = workspace.ViewInfo

// LookupResponse is the ranked candidate list for a query.
type LookupResponse struct {
	Query      string        `json:"query" example:"proj"`
	Candidates []models.Page `json:"candidates"`
}

// CatalogResponse lists every page the highlighter can match.
type CatalogResponse struct {
	Pages []models.Page `json:"pages"`
	Count int           `json:"count" example:"42"`
}
