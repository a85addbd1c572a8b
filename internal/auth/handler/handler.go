package handler

import (
	"net/http"

	"chat-service/internal/apierr"
	"chat-service/internal/auth"
	"chat-service/internal/config"
	"chat-service/internal/httpx"
	"chat-service/internal/logger"
	"chat-service/internal/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	gate         *auth.Gate
	sessionStore session.Store
	cfg          config.Config
}

func NewHandler(gate *auth.Gate, sessionStore session.Store, cfg config.Config) *Handler {
	return &Handler{
		gate:         gate,
		sessionStore: sessionStore,
		cfg:          cfg,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/session", h.createSession)
	r.POST("/auth/logout", h.logout)
}

// createSession exchanges a valid bearer token for a cookie session. The
// CSRF secret goes back in the body so the client can attach it to
// mutating requests.
func (h *Handler) createSession(c *gin.Context) {
	userID, err := h.gate.ExchangeBearer(c.Request)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	sess, err := h.sessionStore.Create(
		c.Request.Context(),
		userID,
		c.Request.UserAgent(),
	)
	if err != nil {
		logger.Error("session create failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		httpx.Error(c, apierr.Wrap(apierr.KindStore, "failed to persist session", err))
		return
	}

	session.SetCookie(c.Writer, sess.ID, sess.ExpiresAt, session.CookieOptions{
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.cfg.SessionTTL,
	})

	logger.Info("session created", map[string]any{
		"user_id":    userID,
		"session_id": sess.ID,
	})

	httpx.OK(c, gin.H{
		"userId":    sess.UserID,
		"csrfToken": sess.CSRFToken,
		"expiresAt": sess.ExpiresAt,
	})
}

func (h *Handler) logout(c *gin.Context) {
	// Same cookie read as the auth middleware; deletion is best-effort
	// and the whole operation is idempotent.
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		_ = h.sessionStore.Delete(c.Request.Context(), cookie.Value)
		logger.Info("session deleted", map[string]any{
			"session_id": cookie.Value,
		})
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	httpx.OK(c, gin.H{"status": "logged_out"})
}
