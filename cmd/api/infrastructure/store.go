package infrastructure

import (
	"fmt"

	"go.uber.org/zap"

	"realtime-users/internal/adapter/gin/handler"
	"realtime-users/internal/adapter/store/memory"
	redisstore "realtime-users/internal/adapter/store/redis"
	"realtime-users/internal/config"
	"realtime-users/internal/usecase/user"
	redisclient "realtime-users/pkg/redis"
)

// Store is a collection store that can also list a collection once.
type Store interface {
	user.Collection
	handler.Lister
}

// NewStore builds the collection store selected by STORE_BACKEND.
// The returned close function releases store-owned resources only.
func NewStore(cfg *config.Config, rdb *redisclient.Client, l *zap.Logger) (Store, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		l.Warn("using in-memory collection store, data is lost on restart")
		s := memory.New(l)
		return s, s.Close, nil
	case config.StoreRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("redis store selected without a redis connection")
		}
		l.Info("using redis collection store", zap.String("prefix", cfg.Store.Prefix))
		return redisstore.New(rdb.Client, cfg.Store.Prefix, l), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
