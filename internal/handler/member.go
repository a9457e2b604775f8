package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/tracker"
)

type MemberHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewMemberHandler(t *tracker.Tracker, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{tracker: t, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.State().Members)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tracker.MemberInput
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.tracker.AddMember(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req state.MemberPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.tracker.EditMember(r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.RemoveMember(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
