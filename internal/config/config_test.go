package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	c, err := load(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "/api", c.BasePath)
	assert.Equal(t, 200*time.Millisecond, c.ResponseDelay)
	assert.Equal(t, BackendMemory, c.StoreBackend)
	assert.Equal(t, DefaultJWTSecret, c.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	c, err := load(envOf(map[string]string{
		"PORT":             "9090",
		"BASE_PATH":        "shop/v1/",
		"RESPONSE_DELAY":   "0s",
		"LOGIN_RATE_LIMIT": "3",
		"STORE_BACKEND":    "BOLT",
		"STORE_PATH":       "/tmp/x.db",
		"JWT_SECRET":       "0123456789abcdef0123",
		"REDIS_TTL":        "1h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "/shop/v1", c.BasePath)
	assert.Equal(t, time.Duration(0), c.ResponseDelay)
	assert.Equal(t, 3, c.LoginRateLimit)
	assert.Equal(t, BackendBolt, c.StoreBackend)
	assert.Equal(t, "/tmp/x.db", c.StorePath)
	assert.Equal(t, time.Hour, c.RedisTTL)
}

func TestLoad_RootBasePath(t *testing.T) {
	c, err := load(envOf(map[string]string{"BASE_PATH": "/"}))
	require.NoError(t, err)
	assert.Equal(t, "", c.BasePath)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"short secret":    {"JWT_SECRET": "short"},
		"bad delay":       {"RESPONSE_DELAY": "soon"},
		"negative delay":  {"RESPONSE_DELAY": "-1s"},
		"bad rate":        {"LOGIN_RATE_LIMIT": "many"},
		"unknown backend": {"STORE_BACKEND": "cassandra"},
		"postgres no dsn": {"STORE_BACKEND": "postgres"},
		"bad redis ttl":   {"REDIS_TTL": "forever"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(envOf(env))
			assert.Error(t, err)
		})
	}
}
