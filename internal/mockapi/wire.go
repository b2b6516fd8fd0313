package mockapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"MockShop/internal/auth"
	"MockShop/internal/catalog"
	"MockShop/internal/config"
)

// NewServer builds the demo users, the token maker and the product store
// selected by cfg. The returned func releases the store backend.
func NewServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}

	users, err := auth.NewDemoUserStore()
	if err != nil {
		return nil, nil, err
	}

	seed, err := catalog.SeedProducts()
	if err != nil {
		return nil, nil, err
	}

	repo, closeRepo, err := OpenRepository(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	s := &Server{
		Log:      log,
		Users:    users,
		Tokens:   auth.NewTokenMaker(cfg.JWTSecret),
		Products: catalog.NewStore(repo, seed),
	}
	return s, closeRepo, nil
}

// OpenRepository opens the snapshot backend named by cfg.StoreBackend.
func OpenRepository(ctx context.Context, cfg config.Config, log *zap.Logger) (catalog.Repository, func() error, error) {
	noop := func() error { return nil }

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	switch cfg.StoreBackend {
	case "", config.BackendMemory:
		return catalog.NewMemRepository(), noop, nil

	case config.BackendFile:
		return catalog.NewFileRepository(cfg.StorePath), noop, nil

	case config.BackendBolt:
		r, err := catalog.NewBoltRepository(cfg.StorePath, sessionID)
		if err != nil {
			return nil, nil, err
		}
		log.Info("product store: bolt", zap.String("path", cfg.StorePath), zap.String("session_id", sessionID))
		return r, r.Close, nil

	case config.BackendPostgres, config.BackendSQLite:
		dialect, dsn := catalog.Postgres, cfg.DatabaseDSN
		if cfg.StoreBackend == config.BackendSQLite {
			dialect = catalog.SQLite
			if dsn == "" {
				dsn = cfg.StorePath
			}
		}

		r, db, err := catalog.OpenSQL(ctx, dialect, dsn, sessionID)
		if err != nil {
			return nil, nil, err
		}
		log.Info("product store: sql", zap.String("dialect", string(dialect)), zap.String("session_id", sessionID))
		return r, db.Close, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		r := catalog.NewRedisRepository(rdb, sessionID, cfg.RedisTTL)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		log.Info("product store: redis", zap.String("key", r.Key()))
		return r, r.Close, nil

	case config.BackendS3:
		client, err := catalog.NewS3Client(ctx, catalog.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("product store: s3", zap.String("bucket", cfg.S3Bucket), zap.String("session_id", sessionID))
		return catalog.NewS3Repository(client, cfg.S3Bucket, sessionID), noop, nil
	}

	return nil, nil, errors.New("unknown store backend: " + cfg.StoreBackend)
}

// DepsFromConfig maps cfg onto the HTTP layer settings. Metrics are served
// only when reg is non-nil.
func DepsFromConfig(cfg config.Config, service string, log *zap.Logger, reg *prometheus.Registry) HTTPDeps {
	return HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: reg != nil,
		MetricsToken:   cfg.MetricsToken,
		BasePath:       cfg.BasePath,
		Delay:          cfg.ResponseDelay,
		LoginRateLimit: cfg.LoginRateLimit,
	}
}
