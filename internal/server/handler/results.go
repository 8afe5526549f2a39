package handler

import (
	"log/slog"
	"net/http"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// ResultsHandler serves the persisted opportunity-result history.
type ResultsHandler struct {
	store  domain.ResultStore
	logger *slog.Logger
}

// NewResultsHandler creates a ResultsHandler. store may be nil when the
// engine runs without a database.
func NewResultsHandler(store domain.ResultStore, logger *slog.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "results")),
	}
}

// ListRecent handles GET /api/v1/results.
func (h *ResultsHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "result history is not configured")
		return
	}

	results, err := h.store.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list results failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "listing results failed")
		return
	}

	payload := make([]resultPayload, 0, len(results))
	for _, res := range results {
		payload = append(payload, toPayload(res))
	}
	writeJSON(w, http.StatusOK, payload)
}
