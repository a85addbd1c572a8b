package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allow      bool
	retryAfter time.Duration
}

func (s *stubLimiter) Allow(_ *http.Request) (bool, time.Duration) {
	return s.allow, s.retryAfter
}

func limitedRouter(l Limiter, handled *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Gin(RateLimit(l)))
	router.POST("/x", func(c *gin.Context) {
		*handled++
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})
	return router
}

func TestRateLimitDeniedShortCircuits(t *testing.T) {
	handled := 0
	router := limitedRouter(&stubLimiter{allow: false, retryAfter: 30 * time.Second}, &handled)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"rate_limited"`)
	assert.Contains(t, w.Body.String(), `"retryAfter":30`)
	assert.Equal(t, 0, handled, "later stages must not run after a short-circuit")
}

func TestRateLimitAllowedPassesThrough(t *testing.T) {
	handled := 0
	router := limitedRouter(&stubLimiter{allow: true}, &handled)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, handled)
}

func TestNilLimiterDisablesTheStage(t *testing.T) {
	handled := 0
	router := limitedRouter(nil, &handled)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, handled)
}

func TestRetryAfterFloorIsOneSecond(t *testing.T) {
	handled := 0
	router := limitedRouter(&stubLimiter{allow: false, retryAfter: 200 * time.Millisecond}, &handled)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRequireCSRFWithoutIdentityRejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handled := 0
	router := gin.New()
	router.Use(Gin(RequireCSRF))
	router.POST("/x", func(c *gin.Context) {
		handled++
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, handled)
}
