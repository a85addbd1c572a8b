package middleware

import (
	"net/http"

	"chat-service/internal/apierr"
	"chat-service/internal/csrf"
	"chat-service/internal/httpx"
)

// RequireCSRF validates the CSRF header on mutating requests. It must run
// after RequireAuth, which decides the verification path.
func RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, apierr.New(apierr.KindAuthentication, "no identity resolved"))
			return
		}

		if err := csrf.Check(r, id); err != nil {
			httpx.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
