package app

import (
	"context"

	"chat-service/internal/auth"
	authhandler "chat-service/internal/auth/handler"
	"chat-service/internal/chat"
	"chat-service/internal/config"
	"chat-service/internal/idempotency"
	"chat-service/internal/middleware"
	"chat-service/internal/session"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config, limiter middleware.Limiter) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client, cfg.SessionTTL)
	gate := auth.NewGate(sessionStore, cfg)
	authMiddleware := middleware.NewAuthMiddleware(gate)

	idemCache := idempotency.NewCache(infra.Redis.Client, cfg.IdempotencyTTL)
	chatStore := chat.NewStore(infra.Redis.Client)

	authHandler := authhandler.NewHandler(gate, sessionStore, cfg)
	chatHandler := chat.NewHandler(chatStore, idemCache)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// Rate limiting runs before everything else; the limiter itself is an
	// external collaborator, only its 429 contract lives here.
	router.Use(middleware.Gin(middleware.RateLimit(limiter)))

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.Gin(authMiddleware.RequireAuth))
	api.Use(middleware.Gin(middleware.RequireCSRF))

	chatHandler.RegisterRoutes(api)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.Redis.Close()
	}, nil
}
