package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(lookupFrom(map[string]string{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "10M", cfg.BodyLimit)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestParseMissingSecret(t *testing.T) {
	_, err := Parse(lookupFrom(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestParseCollectsAllErrors(t *testing.T) {
	_, err := Parse(lookupFrom(map[string]string{
		"JWT_SECRET":           "x",
		"STORE_DRIVER":         "mysql",
		"ACCESS_TOKEN_TTL_MIN": "soon",
		"BCRYPT_COST":          "2",
	}))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "DB_USER")
	assert.Contains(t, msg, "ACCESS_TOKEN_TTL_MIN")
	assert.Contains(t, msg, "BCRYPT_COST")
}

func TestParseUnknownDriver(t *testing.T) {
	_, err := Parse(lookupFrom(map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "mongo"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestParseCORSList(t *testing.T) {
	cfg, err := Parse(lookupFrom(map[string]string{
		"JWT_SECRET":   "x",
		"CORS_ORIGINS": " http://a.test , ,http://b.test",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestRateLimitNormalized(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0}.normalized()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
}

func TestLoadCacheConfigFromEnv(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "bogus")
	t.Setenv("CACHE_TTL", "2m")
	cfg := LoadCacheConfig()
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 2*time.Minute, cfg.TTL)
	assert.True(t, cfg.Enabled)
}

func TestLoadBrokerConfigFallsBackToAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	cfg := LoadBrokerConfig()
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.URL)
	assert.Equal(t, "recipe.events", cfg.Queue)
	assert.False(t, cfg.Enabled)
}

func TestLoadRedisConfigHostPortWinOverAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache.internal:6380")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, 3, cfg.DB)
	assert.True(t, cfg.TLS)
	assert.True(t, cfg.Enabled)
}

func TestRedisConnectDisabled(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "false")
	rdb, err := LoadRedisConfig().Connect(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestRedisConnectUnreachable(t *testing.T) {
	cfg := RedisConfig{Enabled: true, Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}
	rdb, err := cfg.Connect(context.Background())
	require.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
