package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tether/internal/models"
	"github.com/starford/tether/internal/render"
	"github.com/starford/tether/internal/workspace"
)

// Handler holds API route handlers.
type Handler struct {
	ws *workspace.Service
}

// NewHandler creates a new Handler.
func NewHandler(ws *workspace.Service) *Handler {
	return &Handler{ws: ws}
}

func viewID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// OpenView handles POST /api/views.
//
//	@Summary		Open a note in a new view
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenViewRequest	true	"Note to open"
//	@Success		201		{object}	ViewInfo
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views [post]
func (h *Handler) OpenView(w http.ResponseWriter, r *http.Request) {
	var req OpenViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	v, err := h.ws.Open(r.Context(), req.Path)
	if err != nil {
		writeError(w, "open view", err)
		return
	}
	info, err := h.ws.Info(v.ID())
	if err != nil {
		writeError(w, "open view", err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// GetView handles GET /api/views/{id}.
//
//	@Summary		Get an open view
//	@Tags			views
//	@Produce		json
//	@Param			id	path		string	true	"View id"
//	@Success		200	{object}	ViewInfo
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{id} [get]
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	info, err := h.ws.Info(viewID(r))
	if err != nil {
		writeError(w, "get view", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CloseView handles DELETE /api/views/{id}.
func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Close(viewID(r)); err != nil {
		writeError(w, "close view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetViewport handles PUT /api/views/{id}/viewport.
//
//	@Summary		Set the visible blocks of a view
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"View id"
//	@Param			body	body		ViewportRequest	true	"Blocks or line window"
//	@Success		200		{object}	render.Set
//	@Security		BearerAuth
//	@Router			/views/{id}/viewport [put]
func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	var (
		set *render.Set
		err error
	)
	if req.FirstLine != nil {
		set, err = h.ws.SetViewportLines(viewID(r), *req.FirstLine, *req.LastLine)
	} else {
		set, err = h.ws.SetViewport(viewID(r), req.Blocks)
	}
	if err != nil {
		writeError(w, "set viewport", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// SetContent handles PUT /api/views/{id}/content.
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	set, err := h.ws.SetContent(viewID(r), *req.Content)
	if err != nil {
		writeError(w, "set content", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// SetSelection handles PUT /api/views/{id}/selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	set, err := h.ws.Select(viewID(r), workspace.Selection{Anchor: req.Anchor, Head: req.Head})
	if err != nil {
		writeError(w, "set selection", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// SetFocus handles PUT /api/views/{id}/focus.
func (h *Handler) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	set, err := h.ws.SetFocus(viewID(r), *req.Focused)
	if err != nil {
		writeError(w, "set focus", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Click handles POST /api/views/{id}/click.
//
//	@Summary		Click a view element; a primary click on a mark links it
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"View id"
//	@Param			body	body		ClickRequest	true	"Click"
//	@Success		200		{object}	workspace.ClickResult
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{id}/click [post]
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	var (
		res *workspace.ClickResult
		err error
	)
	if req.Pos != nil {
		res, err = h.ws.ClickAt(r.Context(), viewID(r), req.Button, *req.Pos)
	} else {
		res, err = h.ws.Click(r.Context(), viewID(r), req.Click())
	}
	if err != nil {
		writeError(w, "click", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Decorations handles GET /api/views/{id}/decorations.
func (h *Handler) Decorations(w http.ResponseWriter, r *http.Request) {
	set, err := h.ws.Decorations(viewID(r))
	if err != nil {
		writeError(w, "decorations", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Lookup handles GET /api/lookup?q=.
//
//	@Summary		Rank catalog pages for a query
//	@Tags			catalog
//	@Produce		json
//	@Param			q	query		string	true	"Query"
//	@Success		200	{object}	LookupResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lookup [get]
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	candidates := h.ws.Lookup(q)
	if candidates == nil {
		candidates = []models.Page{}
	}
	writeJSON(w, http.StatusOK, LookupResponse{Query: q, Candidates: candidates})
}

// Catalog handles GET /api/catalog.
func (h *Handler) Catalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse(h.ws.Catalog().Pages()))
}

// RefreshCatalog handles POST /api/catalog/refresh.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := h.ws.RefreshCatalog(r.Context())
	if err != nil {
		writeError(w, "refresh catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse(c.Pages()))
}

func catalogResponse(pages []models.Page) CatalogResponse {
	if pages == nil {
		pages = []models.Page{}
	}
	return CatalogResponse{Pages: pages, Count: len(pages)}
}
