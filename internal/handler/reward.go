package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/tracker"
)

type RewardHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewRewardHandler(t *tracker.Tracker, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{tracker: t, logger: logger}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.State().Rewards)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tracker.RewardInput
	if !decodeJSON(w, r, &req) {
		return
	}
	reward, err := h.tracker.AddReward(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req state.RewardPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	reward, err := h.tracker.EditReward(r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.RemoveReward(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Claim handles POST /api/rewards/{id}/claim. Cooperative rewards accept
// "family" as the member.
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"member_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MemberID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id is required", "field": "member_id"})
		return
	}
	reward, err := h.tracker.ClaimReward(r.PathValue("id"), req.MemberID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

// Eligibility handles GET /api/rewards/{id}/eligibility?member=ID.
func (h *RewardHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	el, err := h.tracker.Eligibility(r.PathValue("id"), r.URL.Query().Get("member"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}
