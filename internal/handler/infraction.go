package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/tracker"
)

type InfractionHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewInfractionHandler(t *tracker.Tracker, logger *slog.Logger) *InfractionHandler {
	return &InfractionHandler{tracker: t, logger: logger}
}

func (h *InfractionHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.State().InfractionTypes)
}

func (h *InfractionHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req tracker.InfractionTypeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.tracker.AddInfractionType(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *InfractionHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	var req state.InfractionTypePatch
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.tracker.EditInfractionType(r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *InfractionHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.RemoveInfractionType(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/infractions: this week's log.
func (h *InfractionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.State().Infractions)
}

// Penalize handles POST /api/infractions.
func (h *InfractionHandler) Penalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"member_id"`
		TypeID   string `json:"type_id"`
		Note     string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	inf, err := h.tracker.Penalize(req.MemberID, req.TypeID, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, inf)
}

func (h *InfractionHandler) Compensate(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.CompensateInfraction(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "compensated"})
}
