package middleware

import (
	"net/http"
	"strings"

	"gatecontrol-hq/gatecontrol/pkg/telemetry/logging"
)

// ActorHeader names the caller for audit attribution.
const ActorHeader = "X-Actor"

// Actor stores the X-Actor header in the context. Requests without it are
// attributed to "system" by the store.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
			r = r.WithContext(logging.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// BodyLimit caps request bodies at limit bytes. A non-positive limit
// disables the cap.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
