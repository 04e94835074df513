package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zettpub/internal/models"
)

// RunStore is the read side of the publish history.
type RunStore interface {
	ListRuns(limit int) ([]models.Run, error)
	RunPages(id int64) ([]models.Page, error)
}

// Handler holds API route handlers.
type Handler struct {
	runs   RunStore
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(runs RunStore, logger *slog.Logger) *Handler {
	return &Handler{runs: runs, logger: logger}
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.runs.ListRuns(limit)
	if err != nil {
		h.logger.Error("api: list runs", slog.String("error", err.Error()))
		writeError(w, h.logger, http.StatusInternalServerError, "internal error")
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"runs": runs})
}

// RunPages handles GET /api/runs/{id}/pages.
func (h *Handler) RunPages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, h.logger, http.StatusBadRequest, "invalid run id")
		return
	}
	pages, err := h.runs.RunPages(id)
	if err != nil {
		h.logger.Error("api: run pages", slog.Int64("run", id), slog.String("error", err.Error()))
		writeError(w, h.logger, http.StatusInternalServerError, "internal error")
		return
	}
	if pages == nil {
		pages = []models.Page{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"run": id, "pages": pages})
}
