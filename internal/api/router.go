package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the status routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(runs RunStore, logger *slog.Logger, authEnabled bool, token string) chi.Router {
	h := NewHandler(runs, logger)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token, logger))

	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}/pages", h.RunPages)

	return r
}
