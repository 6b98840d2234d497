package handlers

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// SessionStore is the session registry used by the handlers. *session.Manager implements it.
type SessionStore interface {
	Create() (*explorer.Session, error)
	Get(id string) (*explorer.Session, bool)
	Delete(id string) bool
	Len() int
}

// SessionHandlers serves the JSON session API.
type SessionHandlers struct {
	sessions     SessionStore
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter
}

// NewSessionHandlers creates the session API handlers.
func NewSessionHandlers(sessions SessionStore, logger *slog.Logger) *SessionHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandlers{
		sessions:     sessions,
		logger:       logger,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// HandleCreate handles POST /api/sessions.
func (h *SessionHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create()
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.logger.Info("Session created", logfields.SessionID(sess.ID()))
	h.writeView(w, r, http.StatusCreated, sess)
}

// HandleGet handles GET /api/sessions/{id}.
func (h *SessionHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeView(w, r, http.StatusOK, sess)
}

// HandleDelete handles DELETE /api/sessions/{id}.
func (h *SessionHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.sessions.Delete(id) {
		h.errorAdapter.WriteErrorResponse(w, r, sessionNotFound(id))
		return
	}
	h.logger.Info("Session deleted", logfields.SessionID(id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleAction handles POST /api/sessions/{id}/actions/{action}. The body is
// an optional JSON ActionParams object; the response is the resulting view.
func (h *SessionHandlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var params ActionParams
	if err := decodeJSON(r, &params); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if err := Dispatch(r.Context(), sess, r.PathValue("action"), params, h.logger); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.writeView(w, r, http.StatusOK, sess)
}

func (h *SessionHandlers) lookup(w http.ResponseWriter, r *http.Request) (*explorer.Session, bool) {
	id := r.PathValue("id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, sessionNotFound(id))
		return nil, false
	}
	return sess, true
}

func (h *SessionHandlers) writeView(w http.ResponseWriter, r *http.Request, status int, sess *explorer.Session) {
	if err := writeJSONPretty(w, r, status, sess.Snapshot()); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write session view").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

func sessionNotFound(id string) error {
	return errors.NotFoundError("session not found").
		WithContext("session_id", id).
		Warning().
		Build()
}
