package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// APIKeyHeader carries the shared secret. The service is private and
// reachable only from the dashboard backend, so authentication is a
// single shared API key rather than per-user credentials.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware rejects requests whose key header is missing (401)
// or does not match the configured secret (403). The comparison is
// constant time.
func APIKeyMiddleware(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if provided == "" {
				logger.Warn("API key missing in request",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)
				respondWithError(w, http.StatusUnauthorized, "API key is required")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.Warn("Invalid API key provided",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				respondWithError(w, http.StatusForbidden, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
