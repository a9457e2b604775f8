package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choreweek/internal/tracker"
)

type HistoryHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
	now     func() time.Time
}

func NewHistoryHandler(t *tracker.Tracker, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{tracker: t, logger: logger, now: time.Now}
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.History())
}

// Export handles GET /api/history/export.csv.
func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.tracker.ExportCSV(&buf); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.tracker.ExportFilename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Reset handles POST /api/history/reset, the manual weekly reset.
func (h *HistoryHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tracker.ResetWeek(r.Context(), true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}
