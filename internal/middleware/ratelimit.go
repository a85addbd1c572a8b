package middleware

import (
	"net/http"
	"time"

	"chat-service/internal/apierr"
	"chat-service/internal/httpx"
)

// Limiter is the external rate-limiting collaborator. Window and bucket
// logic live outside this service; only the 429 response contract is
// owned here.
type Limiter interface {
	// Allow reports whether the request may proceed; when it may not,
	// retryAfter tells the client how long to back off.
	Allow(r *http.Request) (ok bool, retryAfter time.Duration)
}

// RateLimit consults the limiter before anything else in the chain. A nil
// limiter disables the stage.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l != nil {
				if ok, retryAfter := l.Allow(r); !ok {
					httpx.WriteError(w, apierr.RateLimited(retryAfter))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
