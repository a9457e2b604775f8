package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreweek/internal/tracker"
)

type StateHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewStateHandler(t *tracker.Tracker, logger *slog.Logger) *StateHandler {
	return &StateHandler{tracker: t, logger: logger}
}

// Get handles GET /api/state. The PIN hash is never sent.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	st := h.tracker.State()
	st.Config = st.Config.Public()
	writeJSON(w, http.StatusOK, st)
}
