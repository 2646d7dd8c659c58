package auth

import (
	"net/http"
)

// healthPath stays reachable without credentials so liveness probes work.
const healthPath = "/health"

// APIKeyMiddleware wraps next with API-key enforcement on every request.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests pass through.
//   - Otherwise the value of the configured request header is compared to key;
//     a missing, empty, or incorrect key gets 401 with a JSON body.
//   - /health is always allowed.
func APIKeyMiddleware(mode, header, key string, next http.Handler) http.Handler {
	if mode != "apikey" || key == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get(header) != key {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "invalid api key"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
