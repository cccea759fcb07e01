package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
)

// RateLimit creates rate limiting middleware keyed by the acting user when
// known, otherwise by client IP. It must run after Authenticate. httprate
// sets Retry-After on limited responses.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			ip, err := httprate.KeyByIP(r)
			return "ip:" + ip, err
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, apperr.E(apperr.KindRateLimited, "Troppe richieste. Riprovi tra poco."))
		}),
	)
}
