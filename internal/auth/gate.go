package auth

import (
	"net/http"
	"strings"
	"time"

	"chat-service/internal/apierr"
	"chat-service/internal/config"
	"chat-service/internal/logger"
	"chat-service/internal/session"
)

// Test bypass wiring. Honored only outside production, and only when the
// server-side flag is set or the request carries the sentinel.
const (
	TestAuthCookie   = "test_auth"
	TestAuthHeader   = "X-Test-Auth"
	TestAuthSentinel = "test-mode-active"

	// BypassUserID is the synthetic caller used while bypass is active.
	BypassUserID = "test-user"
)

// Gate resolves the caller identity for a request: bypass mode, cookie
// session, or bearer-token fallback, in that order.
type Gate struct {
	store session.Store
	cfg   config.Config
	now   func() time.Time
}

func NewGate(store session.Store, cfg config.Config) *Gate {
	return &Gate{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// BypassActive evaluates the bypass rules for one request. Production
// disables bypass unconditionally; no flag or request content overrides
// that.
func (g *Gate) BypassActive(r *http.Request) bool {
	if g.cfg.IsProduction() {
		return false
	}
	if g.cfg.TestAuthMode {
		return true
	}
	if c, err := r.Cookie(TestAuthCookie); err == nil && c.Value == TestAuthSentinel {
		return true
	}
	if strings.EqualFold(r.Header.Get(TestAuthHeader), TestAuthSentinel) {
		return true
	}
	return false
}

// Resolve returns the caller identity or an AuthenticationError. Missing,
// expired, and malformed credentials all collapse to the same error; the
// caller learns nothing about which check failed.
func (g *Gate) Resolve(r *http.Request) (*Identity, error) {
	if g.BypassActive(r) {
		return &Identity{
			SessionID: "bypass",
			UserID:    BypassUserID,
			Bypass:    true,
		}, nil
	}

	if id, err := g.resolveCookie(r); err == nil {
		return id, nil
	}

	return g.resolveBearer(r)
}

func (g *Gate) resolveCookie(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, errUnauthenticated()
	}

	sess, err := g.store.Get(r.Context(), cookie.Value)
	if err != nil {
		// A store outage must never read as "authenticated".
		logger.Error("session lookup failed", map[string]any{
			"session_id": cookie.Value,
			"error":      err.Error(),
		})
		return nil, errUnauthenticated()
	}
	if sess == nil {
		return nil, errUnauthenticated()
	}

	if sess.Expired(g.now()) {
		_ = g.store.Delete(r.Context(), sess.ID)
		return nil, errUnauthenticated()
	}

	// Sliding expiration: touching the session extends it.
	if err := g.store.Refresh(r.Context(), sess.ID); err != nil {
		logger.Warn("session refresh failed", map[string]any{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}

	return &Identity{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		CSRFToken: sess.CSRFToken,
	}, nil
}

func (g *Gate) resolveBearer(r *http.Request) (*Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, errUnauthenticated()
	}

	userID, err := validateBearer([]byte(g.cfg.TokenSecret), raw)
	if err != nil {
		return nil, errUnauthenticated()
	}

	return &Identity{
		SessionID: pseudoSessionID(raw),
		UserID:    userID,
		RawBearer: raw,
	}, nil
}

// ExchangeBearer validates the request's bearer token and returns its
// subject. The session-exchange endpoint uses it to mint cookie sessions.
func (g *Gate) ExchangeBearer(r *http.Request) (string, error) {
	raw := bearerToken(r)
	if raw == "" {
		return "", errUnauthenticated()
	}
	userID, err := validateBearer([]byte(g.cfg.TokenSecret), raw)
	if err != nil {
		return "", errUnauthenticated()
	}
	return userID, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return h[len(prefix):]
}

func errUnauthenticated() error {
	return apierr.New(apierr.KindAuthentication, "authentication required")
}
