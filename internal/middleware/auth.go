package middleware

import (
	"context"
	"net/http"

	"chat-service/internal/auth"
	"chat-service/internal/httpx"
)

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// IdentityFromContext extracts the resolved caller identity from context.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok
}

type AuthMiddleware struct {
	Gate *auth.Gate
}

func NewAuthMiddleware(gate *auth.Gate) *AuthMiddleware {
	return &AuthMiddleware{Gate: gate}
}

// RequireAuth resolves the caller identity (bypass, cookie session, or
// bearer fallback) and attaches it to the request context. Any failure
// short-circuits with a 401 envelope before the next stage runs.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Gate.Resolve(r)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
