// Package handler serves the JSON API on top of the tracker.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choreweek/internal/auth"
	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/tracker"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

// writeError maps tracker, reducer and gate errors to HTTP responses.
// Anything unrecognized is logged and reported as a 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		validation *tracker.ValidationError
		ineligible *state.IneligibleError
		locked     *auth.LockedError
		attempt    *auth.AttemptError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.Message, "field": validation.Field})
	case errors.Is(err, auth.ErrInvalidPIN):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "pin"})
	case errors.Is(err, state.ErrStaleReference):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &ineligible):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  err.Error(),
			"reason": ineligible.Reason,
			"need":   ineligible.Need,
			"have":   ineligible.Have,
		})
	case errors.Is(err, state.ErrNotCompensable), errors.Is(err, state.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &locked):
		secs := int(locked.RetryAfter.Seconds() + 0.999)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "too many failed attempts", "retry_after": secs})
	case errors.As(err, &attempt):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "incorrect PIN", "remaining_attempts": attempt.Remaining})
	case errors.Is(err, auth.ErrIncorrectPIN):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN"})
	default:
		logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
