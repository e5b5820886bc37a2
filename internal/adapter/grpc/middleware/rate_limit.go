package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstCapacity     int
	Enabled           bool
}

const (
	bucketPrefix = "ratelimit:tb:"
	bucketTTL    = 60 // seconds an idle bucket is kept
)

// takeToken refills the bucket in KEYS[1] for the time elapsed since its last
// use and takes one token from it. Returns 1 when a token was taken.
// ARGV: rate (tokens/s), capacity, now (unix seconds), ttl.
var takeToken = redis.NewScript(`
local rate, capacity, now = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3])
local state = redis.call('HMGET', KEYS[1], 'ts', 'tokens')
local ts = tonumber(state[1]) or now
local tokens = tonumber(state[2]) or capacity

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)
local took = 0
if tokens >= 1 then
	tokens = tokens - 1
	took = 1
end

redis.call('HSET', KEYS[1], 'ts', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', KEYS[1], ARGV[4])
return took
`)

// RateLimiter limits collection mutations per client and per operation with
// a token bucket kept in Redis. It is shared by the gRPC interceptor and the
// gin middleware.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter. A nil client disables it.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
		now:    time.Now,
	}
}

// Config returns the limiter configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// BucketKey names the bucket of one client for one operation.
func BucketKey(operation, client string) string {
	return bucketPrefix + operation + ":" + client
}

// Allow takes one token from the bucket identified by key.
// A nil or disabled limiter allows everything, and so does an unreachable Redis.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl == nil || rl.client == nil || !rl.config.Enabled {
		return true
	}

	now := float64(rl.now().UnixMilli()) / 1000
	took, err := takeToken.Run(ctx, rl.client, []string{key},
		rl.config.RequestsPerSecond, rl.config.BurstCapacity, now, bucketTTL).Int()
	if err != nil {
		rl.log.Warn("rate limiter unavailable, allowing request", zap.String("bucket", key), zap.Error(err))
		return true
	}
	if took == 0 {
		rl.log.Info("rate limited", zap.String("bucket", key))
		return false
	}
	return true
}

// UnaryInterceptor limits Write and Remove calls.
// Streams are not limited: a watch is one long-lived call.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !rl.Allow(ctx, BucketKey(info.FullMethod, clientAddr(ctx))) {
			return nil, status.Errorf(codes.ResourceExhausted,
				"rate limit exceeded: %.2f requests/second, burst %d",
				rl.config.RequestsPerSecond, rl.config.BurstCapacity)
		}
		return handler(ctx, req)
	}
}

// clientAddr identifies the caller: a proxy header if present, else the peer address.
func clientAddr(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, h := range []string{"x-forwarded-for", "x-real-ip"} {
			if v := md.Get(h); len(v) > 0 && v[0] != "" {
				return v[0]
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}
