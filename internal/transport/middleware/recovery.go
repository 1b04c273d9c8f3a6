package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rmedeiros-eng/scse/pkg/logger"
)

// RecoveryMiddleware converts panics into 500 responses instead of
// tearing the connection down, logging the stack with the
// request-scoped correlation fields.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"erro interno do servidor"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
