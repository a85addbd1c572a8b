package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-service/internal/apierr"
	"chat-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mutating(header string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/chats", nil)
	if header != "" {
		r.Header.Set(HeaderName, header)
	}
	return r
}

func storedIdentity() *auth.Identity {
	return &auth.Identity{
		SessionID: "s1",
		UserID:    "u1",
		CSRFToken: "stored-secret",
	}
}

func fallbackIdentity(raw string) *auth.Identity {
	return &auth.Identity{
		SessionID: auth.PseudoSessionPrefix + "abc",
		UserID:    "u1",
		RawBearer: raw,
	}
}

func TestReadOnlyMethodsNeverRequireToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		r := httptest.NewRequest(method, "/api/chats", nil)
		r.Header.Set(HeaderName, "garbage")
		assert.NoError(t, Check(r, storedIdentity()), method)

		r.Header.Del(HeaderName)
		assert.NoError(t, Check(r, storedIdentity()), method)
	}
}

func TestBypassSkipsCheck(t *testing.T) {
	id := &auth.Identity{SessionID: "bypass", UserID: "test-user", Bypass: true}
	assert.NoError(t, Check(mutating(""), id))
}

func TestStoredSecretMatch(t *testing.T) {
	assert.NoError(t, Check(mutating("stored-secret"), storedIdentity()))
}

func TestStoredSecretMismatch(t *testing.T) {
	err := Check(mutating("wrong"), storedIdentity())
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuthentication, apierr.KindOf(err))
}

func TestMissingHeaderOnMutation(t *testing.T) {
	err := Check(mutating(""), storedIdentity())
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuthentication, apierr.KindOf(err))
}

func TestFallbackDigestMatch(t *testing.T) {
	raw := "bearer-token-value"
	assert.NoError(t, Check(mutating(FallbackToken(raw)), fallbackIdentity(raw)))
}

func TestFallbackDigestOfDifferentTokenRejected(t *testing.T) {
	err := Check(mutating(FallbackToken("other-token")), fallbackIdentity("bearer-token-value"))
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuthentication, apierr.KindOf(err))
}

func TestIdentityWithoutAnySecretRejected(t *testing.T) {
	id := &auth.Identity{SessionID: "s1", UserID: "u1"}
	err := Check(mutating("anything"), id)
	require.Error(t, err)
}

func TestFallbackTokenIsDeterministicDigest(t *testing.T) {
	a := FallbackToken("tok")
	b := FallbackToken("tok")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha-256
	assert.NotEqual(t, a, FallbackToken("tok2"))
}
