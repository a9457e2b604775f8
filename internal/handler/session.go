package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/tracker"
)

// SessionHandler covers admin mode, the PIN and the configuration.
type SessionHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewSessionHandler(t *tracker.Tracker, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{tracker: t, logger: logger}
}

// Status handles GET /api/session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Session())
}

// Login handles POST /api/session.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.tracker.Login(req.PIN); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"admin": true})
}

// Logout handles DELETE /api/session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tracker.Logout()
	writeJSON(w, http.StatusOK, map[string]bool{"admin": false})
}

// ChangePIN handles PUT /api/pin.
func (h *SessionHandler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPIN string `json:"current_pin"`
		NewPIN     string `json:"new_pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.tracker.ChangePIN(req.CurrentPIN, req.NewPIN); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.State().Config.Public())
}

func (h *SessionHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req state.ConfigPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := h.tracker.UpdateConfiguration(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
