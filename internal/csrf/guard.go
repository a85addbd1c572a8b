// Package csrf verifies request-integrity tokens on state-changing
// requests. Store-backed sessions carry a strong random secret; fallback
// identities use a digest of the bearer token instead, which only proves
// possession of the token and is the weaker of the two paths.
package csrf

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"chat-service/internal/apierr"
	"chat-service/internal/auth"
	"chat-service/internal/logger"
)

// HeaderName carries the CSRF token on mutating requests.
const HeaderName = "X-CSRF-Token"

// FallbackToken derives the expected CSRF value for a bearer identity:
// a one-way digest of the raw token.
func FallbackToken(rawBearer string) string {
	sum := sha256.Sum256([]byte(rawBearer))
	return hex.EncodeToString(sum[:])
}

// safeMethod reports whether the method is read-only and exempt from the
// token check.
func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Check validates the CSRF header for one request against the resolved
// identity. Read-only methods and bypass identities always pass.
func Check(r *http.Request, id *auth.Identity) error {
	if safeMethod(r.Method) {
		return nil
	}
	if id.Bypass {
		return nil
	}

	header := r.Header.Get(HeaderName)
	if header == "" {
		return fail(id.SessionID, "missing header")
	}

	expected := id.CSRFToken
	if id.IsFallback() {
		expected = FallbackToken(id.RawBearer)
	}
	if expected == "" {
		return fail(id.SessionID, "no verifiable secret")
	}

	if subtle.ConstantTimeCompare([]byte(header), []byte(expected)) != 1 {
		return fail(id.SessionID, "mismatch")
	}

	return nil
}

// fail logs the session id only; token values never reach the log.
func fail(sessionID, reason string) error {
	logger.Warn("csrf check failed", map[string]any{
		"session_id": sessionID,
		"reason":     reason,
	})
	return apierr.New(apierr.KindAuthentication, "csrf verification failed")
}
