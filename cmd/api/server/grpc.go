package server

import (
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	grpcadapter "realtime-users/internal/adapter/grpc"
	"realtime-users/internal/adapter/grpc/middleware"
	"realtime-users/internal/usecase/user"
	"realtime-users/pkg/logger"
)

// SetupGRPC creates the gRPC server exposing the collection service.
func SetupGRPC(
	coll user.Collection,
	authn *middleware.Authenticator,
	rateLimiter *middleware.RateLimiter,
	l *zap.Logger,
) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			logger.UnaryLoggingInterceptor(l),
			authn.UnaryInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			logger.StreamRequestIDInterceptor(),
			logger.StreamLoggingInterceptor(l),
			authn.StreamInterceptor(),
		),
		// watches are long lived; keep idle connections from being dropped by proxies
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)
	grpcadapter.NewCollectionService(coll, l).Register(grpcServer)

	return grpcServer
}
