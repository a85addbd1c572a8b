package app

import (
	"context"

	"chat-service/internal/config"
	"chat-service/internal/logger"
	"chat-service/internal/redis"
)

type Infra struct {
	Redis *redis.Client
}

// setupInfra builds the process-lifetime store handle. It is constructed
// exactly once here and released by the app cleanup func on shutdown.
func setupInfra(_ context.Context, cfg config.Config) (*Infra, error) {
	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	return &Infra{
		Redis: redisClient,
	}, nil
}
