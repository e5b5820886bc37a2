package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginrouter "realtime-users/internal/adapter/gin/router"
	grpcmiddleware "realtime-users/internal/adapter/grpc/middleware"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	handlers ginrouter.Handlers,
	verifier grpcmiddleware.Verifier,
	rateLimiter *grpcmiddleware.RateLimiter,
	ginAddr string,
	env string,
	l *zap.Logger,
) *http.Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(handlers, verifier, rateLimiter, l)

	l.Info("Gin REST API configured", zap.String("address", ginAddr))

	// No WriteTimeout: the live websocket keeps its connection open and
	// sets its own write deadlines.
	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
