package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// queryParam carries the key for clients that cannot set headers.
const queryParam = "api_key"

// Middleware returns an HTTP middleware that rejects requests without the
// expected API key with 401.
func Middleware(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforced(mode, key) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" {
				got = r.URL.Query().Get(queryParam)
			}
			if got == "" || !equal(got, key) {
				slog.Debug("auth: rejected request", "path", r.URL.Path, "remote", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
