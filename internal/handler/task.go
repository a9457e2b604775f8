package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/tracker"
)

type TaskHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewTaskHandler(t *tracker.Tracker, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tracker: t, logger: logger}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.State().Tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tracker.TaskInput
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.tracker.AddTask(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req state.TaskPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := h.tracker.EditTask(r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.RemoveTask(r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mark handles POST /api/tasks/{id}/mark.
func (h *TaskHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID  string `json:"member_id"`
		Completed bool   `json:"completed"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MemberID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id is required", "field": "member_id"})
		return
	}
	task, err := h.tracker.MarkTask(r.PathValue("id"), req.MemberID, req.Completed)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
