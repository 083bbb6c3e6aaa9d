package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ves-sport/commerce-backend/internal/config"
)

func configFor(mr *miniredis.Miniredis) *config.Config {
	return &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: mr.Port(), PoolSize: 2}}
}

func TestNewConnection(t *testing.T) {
	mr := miniredis.RunT(t)
	log, hook := test.NewNullLogger()

	client, err := NewConnection(configFor(mr), log)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Health(context.Background()))
	assert.Equal(t, "Redis connection established", hook.LastEntry().Message)

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestNewConnection_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := configFor(mr)
	mr.Close()
	log, _ := test.NewNullLogger()

	_, err := NewConnection(cfg, log)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
