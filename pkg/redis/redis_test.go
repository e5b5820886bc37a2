package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func configFor(mr *miniredis.Miniredis) Config {
	return Config{Host: mr.Host(), Port: mr.Port(), PoolSize: 2}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), configFor(mr), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Healthy(context.Background()))
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(mr)
	mr.Close()

	client, err := Connect(context.Background(), cfg, zaptest.NewLogger(t))

	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.Addr())
}

func TestConfigOptions(t *testing.T) {
	cfg := Config{Host: "cache", Port: "6380", Password: "pw", DB: 2, MaxRetries: 3, PoolSize: 10, MinIdleConn: 1}

	opts := cfg.Options()

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 1, opts.MinIdleConns)
}
