package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rmedeiros-eng/scse/pkg/logger"
)

const traceHeader = "X-Trace-ID"

// RequestID honours an incoming trace id or mints one, stores it on the
// request logger and echoes it back so clients can correlate responses.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceHeader, traceID)

		ctx := logger.With(r.Context(), "traceID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
