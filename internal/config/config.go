// Package config reads the mock API settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendS3       = "s3"
)

// DefaultJWTSecret is a development fixture. The mock API is not a
// credential authority.
const DefaultJWTSecret = "mockshop-dev-secret-change-me"

const minSecretLen = 16

type Config struct {
	Port      string
	BasePath  string
	LogLevel  string
	JWTSecret string

	ResponseDelay  time.Duration
	LoginRateLimit int
	MetricsToken   string

	SessionID    string
	StoreBackend string
	StorePath    string
	DatabaseDSN  string

	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

func Defaults() Config {
	return Config{
		Port:           "8080",
		BasePath:       "/api",
		LogLevel:       "info",
		JWTSecret:      DefaultJWTSecret,
		ResponseDelay:  200 * time.Millisecond,
		LoginRateLimit: 10,
		StoreBackend:   BackendMemory,
		StorePath:      "mockshop.db",
		RedisAddr:      "localhost:6379",
		RedisTTL:       24 * time.Hour,
		S3Bucket:       "mockshop",
		S3Region:       "us-east-1",
	}
}

// Load overlays environment variables on Defaults and validates the result.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	c := Defaults()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	str("BASE_PATH", &c.BasePath)
	str("LOG_LEVEL", &c.LogLevel)
	str("JWT_SECRET", &c.JWTSecret)
	str("METRICS_TOKEN", &c.MetricsToken)
	str("SESSION_ID", &c.SessionID)
	str("STORE_BACKEND", &c.StoreBackend)
	str("STORE_PATH", &c.StorePath)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)

	if v, ok := lookup("RESPONSE_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("RESPONSE_DELAY: %w", err)
		}
		c.ResponseDelay = d
	}
	if v, ok := lookup("REDIS_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_TTL: %w", err)
		}
		c.RedisTTL = d
	}
	if v, ok := lookup("LOGIN_RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
		}
		c.LoginRateLimit = n
	}

	c.BasePath = normalizeBasePath(c.BasePath)
	c.StoreBackend = strings.ToLower(c.StoreBackend)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d chars", minSecretLen)
	}
	if c.ResponseDelay < 0 {
		return fmt.Errorf("RESPONSE_DELAY must not be negative")
	}

	switch c.StoreBackend {
	case BackendMemory, BackendFile, BackendBolt, BackendSQLite, BackendRedis:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres backend")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// normalizeBasePath yields "" or a path with a leading and no trailing slash.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
