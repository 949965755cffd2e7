package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tether/internal/workspace"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(ws *workspace.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ws)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/views", func(r chi.Router) {
		r.Post("/", h.OpenView)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetView)
			r.Delete("/", h.CloseView)
			r.Put("/viewport", h.SetViewport)
			r.Put("/content", h.SetContent)
			r.Put("/selection", h.SetSelection)
			r.Put("/focus", h.SetFocus)
			r.Post("/click", h.Click)
			r.Get("/decorations", h.Decorations)
		})
	})

	r.Get("/lookup", h.Lookup)
	r.Get("/catalog", h.Catalog)
	r.Post("/catalog/refresh", h.RefreshCatalog)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
