package catalog

import (
	"context"
	"sync"
)

// MemRepository keeps the snapshot as encoded JSON in process memory, the
// same shape a browser keeps it in session storage.
type MemRepository struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemRepository() *MemRepository {
	return &MemRepository{}
}

func (r *MemRepository) Load(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	data := r.data
	r.mu.RUnlock()

	if data == nil {
		return nil, ErrNoSnapshot
	}
	return decodeSnapshot(data)
}

func (r *MemRepository) Save(ctx context.Context, products []Product) error {
	data, err := encodeSnapshot(products)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()
	return nil
}

// Clear drops the snapshot, like closing the browser tab.
func (r *MemRepository) Clear() {
	r.mu.Lock()
	r.data = nil
	r.mu.Unlock()
}
