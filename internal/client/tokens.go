package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// TokenKey is the name the session token is stored under.
const TokenKey = "token"

var ErrNoToken = errors.New("no token stored")

// TokenStore is durable client-side storage for the session token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

type MemTokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemTokenStore() *MemTokenStore {
	return &MemTokenStore{}
}

func (s *MemTokenStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemTokenStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemTokenStore) ClearToken(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

var tokenBucket = []byte("local")

// BoltTokenStore keeps the token in a bbolt file so it survives restarts
// of the CLI.
type BoltTokenStore struct {
	db *bolt.DB
}

func OpenBoltTokenStore(path string) (*BoltTokenStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open token file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tokenBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init token bucket: %w", err)
	}

	return &BoltTokenStore{db: db}, nil
}

func (s *BoltTokenStore) Close() error {
	return s.db.Close()
}

func (s *BoltTokenStore) Token(_ context.Context) (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(tokenBucket).Get([]byte(TokenKey)); v != nil {
			token = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *BoltTokenStore) SetToken(_ context.Context, token string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokenBucket).Put([]byte(TokenKey), []byte(token))
	})
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *BoltTokenStore) ClearToken(_ context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokenBucket).Delete([]byte(TokenKey))
	})
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
