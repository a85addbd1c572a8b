package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSetCookieUsesConfiguredMaxAge(t *testing.T) {
	w := httptest.NewRecorder()

	// The record has only part of its lifetime left; the cookie max-age
	// still comes from the configured TTL, not the remainder.
	SetCookie(w, "s1", time.Now().Add(time.Hour), CookieOptions{
		MaxAge: 7 * 24 * time.Hour,
	})

	cookie := issuedCookie(t, w)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestSetCookieFallsBackToRemainingLifetime(t *testing.T) {
	w := httptest.NewRecorder()
	SetCookie(w, "s1", time.Now().Add(time.Hour), CookieOptions{})

	cookie := issuedCookie(t, w)
	require.Positive(t, cookie.MaxAge)
	assert.LessOrEqual(t, cookie.MaxAge, int(time.Hour.Seconds()))
}

func TestClearCookieExpiresImmediately(t *testing.T) {
	w := httptest.NewRecorder()
	ClearCookie(w, CookieOptions{})

	cookie := issuedCookie(t, w)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
