package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chat-service/internal/apierr"
	"chat-service/internal/config"
	"chat-service/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "gate-test-secret"

// stubStore records refresh calls so the sliding-expiration side effect is
// observable.
type stubStore struct {
	sessions  map[string]*session.Session
	refreshed []string
	deleted   []string
	getErr    error
}

func newStubStore() *stubStore {
	return &stubStore{sessions: map[string]*session.Session{}}
}

func (s *stubStore) Create(_ context.Context, userID, _ string) (*session.Session, error) {
	panic("not used")
}

func (s *stubStore) Get(_ context.Context, id string) (*session.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.sessions[id], nil
}

func (s *stubStore) Refresh(_ context.Context, id string) error {
	s.refreshed = append(s.refreshed, id)
	return nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.sessions, id)
	return nil
}

func testConfig(env string) config.Config {
	return config.Config{
		Env:         env,
		TokenSecret: testSecret,
	}
}

func signedToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func storedSession(id, userID string, expiresAt time.Time) *session.Session {
	now := time.Now()
	return &session.Session{
		ID:        id,
		UserID:    userID,
		CSRFToken: "stored-csrf-secret",
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
}

func request(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/api/chats", nil)
}

func requireAuthError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuthentication, apierr.KindOf(err))
}

func TestBypassDisabledInProductionRegardlessOfFlags(t *testing.T) {
	cfg := testConfig("production")
	cfg.TestAuthMode = true
	gate := NewGate(newStubStore(), cfg)

	r := request(t)
	r.Header.Set(TestAuthHeader, TestAuthSentinel)
	r.AddCookie(&http.Cookie{Name: TestAuthCookie, Value: TestAuthSentinel})

	assert.False(t, gate.BypassActive(r))

	_, err := gate.Resolve(r)
	requireAuthError(t, err)
}

func TestBypassViaServerFlag(t *testing.T) {
	cfg := testConfig("development")
	cfg.TestAuthMode = true
	gate := NewGate(newStubStore(), cfg)

	id, err := gate.Resolve(request(t))
	require.NoError(t, err)
	assert.True(t, id.Bypass)
	assert.Equal(t, BypassUserID, id.UserID)
}

func TestBypassViaCookieSentinel(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	r := request(t)
	r.AddCookie(&http.Cookie{Name: TestAuthCookie, Value: TestAuthSentinel})

	assert.True(t, gate.BypassActive(r))
}

func TestBypassHeaderValueIsCaseInsensitive(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	r := request(t)
	r.Header.Set(TestAuthHeader, "TEST-MODE-ACTIVE")

	assert.True(t, gate.BypassActive(r))
}

func TestBypassWrongSentinelDoesNothing(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	r := request(t)
	r.Header.Set(TestAuthHeader, "test-mode-active-nope")
	r.AddCookie(&http.Cookie{Name: TestAuthCookie, Value: "wrong"})

	assert.False(t, gate.BypassActive(r))
}

func TestResolveCookieSession(t *testing.T) {
	store := newStubStore()
	store.sessions["s1"] = storedSession("s1", "u1", time.Now().Add(time.Hour))
	gate := NewGate(store, testConfig("development"))

	r := request(t)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "s1"})

	id, err := gate.Resolve(r)
	require.NoError(t, err)

	assert.Equal(t, "s1", id.SessionID)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "stored-csrf-secret", id.CSRFToken)
	assert.False(t, id.IsFallback())
	assert.False(t, id.Bypass)

	// sliding expiration side effect
	assert.Equal(t, []string{"s1"}, store.refreshed)
}

func TestResolveExpiredSessionFailsAndDeletes(t *testing.T) {
	store := newStubStore()
	store.sessions["s1"] = storedSession("s1", "u1", time.Now().Add(-time.Minute))
	gate := NewGate(store, config.Config{Env: "development"})

	r := request(t)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "s1"})

	_, err := gate.Resolve(r)
	requireAuthError(t, err)
	assert.Equal(t, []string{"s1"}, store.deleted)
	assert.Empty(t, store.refreshed)
}

func TestResolveStoreOutageIsAuthFailureNotSuccess(t *testing.T) {
	store := newStubStore()
	store.getErr = apierr.New(apierr.KindStore, "redis unreachable")
	gate := NewGate(store, config.Config{Env: "development"})

	r := request(t)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "s1"})

	_, err := gate.Resolve(r)
	requireAuthError(t, err)
}

func TestResolveMissingEverythingFails(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	_, err := gate.Resolve(request(t))
	requireAuthError(t, err)
}

func TestResolveBearerFallback(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	raw := signedToken(t, testSecret, "u42", time.Now().Add(time.Hour))
	r := request(t)
	r.Header.Set("Authorization", "Bearer "+raw)

	id, err := gate.Resolve(r)
	require.NoError(t, err)

	assert.Equal(t, "u42", id.UserID)
	assert.True(t, id.IsFallback())
	assert.Equal(t, raw, id.RawBearer)
	assert.Empty(t, id.CSRFToken)
}

func TestResolveExpiredBearerFails(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	raw := signedToken(t, testSecret, "u42", time.Now().Add(-time.Hour))
	r := request(t)
	r.Header.Set("Authorization", "Bearer "+raw)

	_, err := gate.Resolve(r)
	requireAuthError(t, err)
}

func TestResolveForgedBearerFails(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	raw := signedToken(t, "some-other-secret", "u42", time.Now().Add(time.Hour))
	r := request(t)
	r.Header.Set("Authorization", "Bearer "+raw)

	_, err := gate.Resolve(r)
	requireAuthError(t, err)
}

func TestResolveMalformedBearerFails(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	r := request(t)
	r.Header.Set("Authorization", "Bearer not.a.jwt")

	_, err := gate.Resolve(r)
	requireAuthError(t, err)
}

func TestPseudoSessionIDSpaceIsDisjoint(t *testing.T) {
	raw := "whatever-token"
	id := pseudoSessionID(raw)
	assert.True(t, (&Identity{SessionID: id}).IsFallback())

	// Store ids are base64url and cannot contain a colon.
	sid, err := session.GenerateID()
	require.NoError(t, err)
	assert.False(t, (&Identity{SessionID: sid}).IsFallback())
	assert.NotContains(t, sid, ":")
}

func TestExchangeBearer(t *testing.T) {
	gate := NewGate(newStubStore(), testConfig("development"))

	raw := signedToken(t, testSecret, "u7", time.Now().Add(time.Hour))
	r := request(t)
	r.Header.Set("Authorization", "Bearer "+raw)

	userID, err := gate.ExchangeBearer(r)
	require.NoError(t, err)
	assert.Equal(t, "u7", userID)

	_, err = gate.ExchangeBearer(request(t))
	requireAuthError(t, err)
}
