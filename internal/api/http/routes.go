package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ejspeight/fooswap-backend/internal/api/http/mw"
)

// BuildRouter wires the query API routes.
func BuildRouter(h *Handler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.Logging(logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(api chi.Router) {
		api.Get("/pools", h.Pools)
		api.Get("/swaps/{pool_id}", h.Swaps)
		api.Get("/price", h.Price)
	})

	return r
}
