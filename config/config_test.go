package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "kafka", cfg.Bus.Driver)
	assert.Equal(t, "feed-events", cfg.Bus.Kafka.Topic)
	assert.Equal(t, 100, cfg.Bus.Rabbit.Prefetch)
	assert.Equal(t, 60*time.Second, cfg.Feed.CacheTTL)
	assert.False(t, cfg.Cassandra.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FEEDSVC_SERVER_ADDR", ":9090")
	t.Setenv("FEEDSVC_BUS_DRIVER", "rabbitmq")
	t.Setenv("FEEDSVC_CASSANDRA_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "rabbitmq", cfg.Bus.Driver)
	assert.True(t, cfg.Cassandra.Enabled)
}
