package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rmedeiros-eng/scse/internal/auth"
)

// RequireCapability gates a route on any of the given capabilities being
// present in the session claims. No store round-trip happens here: the
// flags were resolved at login and ride in the token.
func RequireCapability(logger *slog.Logger, caps ...auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok || claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !claims.Permissions.HasAny(caps...) {
				names := make([]string, len(caps))
				for i, c := range caps {
					names[i] = c.String()
				}
				logger.Warn("access denied: missing capability",
					"username", claims.Username,
					"required_any_of", names,
					"path", r.URL.Path)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for the admin-panel capability.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireCapability(logger, auth.CapAccessAdminPanel)
}
