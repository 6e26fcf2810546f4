package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/user-directory/internal/adapters/primary/validation"
	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

const (
	defaultDeletionsLimit = 20
	maxDeletionsLimit     = 200
)

// DeletionsHandler exposes the deletion journal.
type DeletionsHandler struct {
	journal      ports.DeletionJournal
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDeletionsHandler creates a new DeletionsHandler.
func NewDeletionsHandler(journal ports.DeletionJournal, errorHandler *ErrorHandler, logger *slog.Logger) *DeletionsHandler {
	return &DeletionsHandler{
		journal:      journal,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "deletions"),
	}
}

// RegisterRoutes registers the /deletions routes.
func (h *DeletionsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/deletions", h.HandleList)
}

// HandleList handles GET /deletions?limit=N, newest first.
func (h *DeletionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := validation.ParseIntQueryParam(r, "limit", defaultDeletionsLimit)
	if limit == 0 {
		limit = defaultDeletionsLimit
	}
	limit = min(limit, maxDeletionsLimit)

	records, err := h.journal.List(r.Context(), limit)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if records == nil {
		records = []domain.DeletionRecord{}
	}

	WriteList(w, records)
}
