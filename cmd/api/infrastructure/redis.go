package infrastructure

import (
	"context"

	"go.uber.org/zap"

	"realtime-users/internal/config"
	redisclient "realtime-users/pkg/redis"
)

// NewRedisClient connects to Redis when a component needs it, nil otherwise.
func NewRedisClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*redisclient.Client, error) {
	if !cfg.NeedsRedis() {
		l.Info("redis not required, skipping connection")
		return nil, nil
	}

	return redisclient.Connect(ctx, redisclient.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
	}, l)
}
