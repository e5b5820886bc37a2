package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"realtime-users/cmd/api/infrastructure"
	"realtime-users/internal/adapter/db/postgres"
	ginhandler "realtime-users/internal/adapter/gin/handler"
	ginrouter "realtime-users/internal/adapter/gin/router"
	"realtime-users/internal/adapter/grpc/middleware"
	"realtime-users/internal/config"
	domain "realtime-users/internal/domain/user"
	"realtime-users/internal/usecase/auth"
	"realtime-users/internal/usecase/user"
	redisclient "realtime-users/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   *redisclient.Client
	Store         infrastructure.Store
	Auth          *auth.Usecase
	Gateway       *user.Gateway
	Watcher       *user.Watcher
	RateLimiter   *middleware.RateLimiter
	Authenticator *middleware.Authenticator
	Handlers      ginrouter.Handlers

	closeStore func() error
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	c.RedisClient = rdb

	store, closeStore, err := infrastructure.NewStore(cfg, rdb, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	c.Store, c.closeStore = store, closeStore

	// Identity
	tokens := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.SessionTTLSeconds)*time.Second)
	c.Auth = auth.New(postgres.NewAccountRepoPG(db, l), tokens, cfg.Auth.SignupEmailDomain, l)

	// Collection
	c.Gateway = user.NewGateway(store, domain.CollectionRoot, l)
	c.Watcher = user.NewWatcher(store, l)

	// Transport middleware
	var limiterClient *redis.Client
	if rdb != nil {
		limiterClient = rdb.Client
	}
	c.RateLimiter = middleware.NewRateLimiter(
		limiterClient,
		middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
			Enabled:           cfg.RateLimit.Enabled,
		},
		l,
	)
	c.Authenticator = middleware.NewAuthenticator(c.Auth, l)

	c.Handlers = ginrouter.Handlers{
		Auth:  ginhandler.NewAuthHandler(c.Auth, l),
		Users: ginhandler.NewUserHandler(c.Gateway, store, l),
		Live:  ginhandler.NewLiveHandler(c.Watcher, ginhandler.DefaultLiveSettings(), l),
	}

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.closeStore != nil {
		if err := c.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
