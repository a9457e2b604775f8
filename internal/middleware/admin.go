package middleware

import (
	"encoding/json"
	"net/http"
)

// RequireAdmin rejects requests with 403 unless isAdmin reports true. The
// admin flag is household-wide, matching a shared kiosk.
func RequireAdmin(isAdmin func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isAdmin() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "admin mode required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
