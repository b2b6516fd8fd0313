package catalog

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketSession = []byte("session")

// BoltRepository stores the snapshot in a bbolt file under the session bucket.
type BoltRepository struct {
	db  *bbolt.DB
	key []byte
}

func NewBoltRepository(path, sessionID string) (*BoltRepository, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	return &BoltRepository{db: db, key: []byte(SnapshotKeyFor(sessionID))}, nil
}

func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func (r *BoltRepository) Load(ctx context.Context) ([]Product, error) {
	var data []byte

	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketSession).Get(r.key)
		if v == nil {
			return ErrNoSnapshot
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decodeSnapshot(data)
}

func (r *BoltRepository) Save(ctx context.Context, products []Product) error {
	data, err := encodeSnapshot(products)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSession).Put(r.key, data); err != nil {
			return fmt.Errorf("put snapshot: %w", err)
		}
		return nil
	})
}
