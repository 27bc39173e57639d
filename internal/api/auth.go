package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/hashicorp-forge/notion-relay/internal/server"
)

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware rejects requests that do not present the configured API
// key. It runs before routing, so unknown paths and malformed bodies are
// rejected the same way as valid requests without a key.
//
// Usage:
//
//	handler := APIKeyMiddleware(srv, NewRouter(srv))
func APIKeyMiddleware(srv server.Server, next http.Handler) http.Handler {
	expected := []byte(srv.Config.APIKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			srv.Logger.Warn("missing api key",
				"path", r.URL.Path,
				"method", r.Method,
				"request_id", RequestID(r.Context()),
			)
			writeError(w, ErrorResponse{
				Kind:  KindAuthentication,
				Error: "missing API key",
			})
			return
		}

		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
			srv.Logger.Warn("invalid api key",
				"path", r.URL.Path,
				"method", r.Method,
				"request_id", RequestID(r.Context()),
			)
			writeError(w, ErrorResponse{
				Kind:  KindAuthentication,
				Error: "invalid API key",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
