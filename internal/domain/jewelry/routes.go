package jewelry

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /jewelry router. Reads are public; writes require
// the admin middleware chain.
func (h *Handler) Routes(adminMiddleware ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/stream", h.Stream)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware...)
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Patch("/{id}/stock", h.SetStock)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

// CategoryRoutes returns the public /categories router
func (h *Handler) CategoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Categories)
	r.Get("/{slug}", h.CategoryPage)
	return r
}
