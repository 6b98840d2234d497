package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/server/responses"
)

// maxHistoryLimit caps the limit query parameter.
const maxHistoryLimit = 500

// HistoryStore reads stored insights. *history.SQLiteStore implements it.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]explorer.Insight, error)
	ListByRepository(ctx context.Context, fullName string, limit int) ([]explorer.Insight, error)
}

// HistoryHandlers serves the insight history.
type HistoryHandlers struct {
	store        HistoryStore
	errorAdapter *errors.HTTPErrorAdapter
}

// NewHistoryHandlers creates the history handlers. A nil store reports the
// history as disabled.
func NewHistoryHandlers(store HistoryStore, logger *slog.Logger) *HistoryHandlers {
	return &HistoryHandlers{store: store, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleList handles GET /api/history?repository=&limit=.
func (h *HistoryHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		err := errors.RuntimeError("insight history is disabled").
			WithContext("hint", "set history.path in the configuration").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr := errors.ValidationError("limit must be a non-negative integer").
				WithContext("limit", raw).
				Build()
			h.errorAdapter.WriteErrorResponse(w, r, verr)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	repo := r.URL.Query().Get("repository")
	var (
		insights []explorer.Insight
		err      error
	)
	if repo != "" {
		insights, err = h.store.ListByRepository(r.Context(), repo, limit)
	} else {
		insights, err = h.store.List(r.Context(), limit)
	}
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := &responses.HistoryResponse{
		Repository: repo,
		Count:      len(insights),
		Insights:   insights,
		Timestamp:  time.Now().UTC(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write history response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
