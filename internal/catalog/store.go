package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// SnapshotKey names the catalog snapshot in every backend.
const SnapshotKey = "productData"

var (
	ErrNotFound   = errors.New("product not found")
	ErrNoSnapshot = errors.New("no snapshot stored")
)

// Repository persists the whole catalog snapshot. Load returns
// ErrNoSnapshot when nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// SnapshotKeyFor scopes the snapshot key to a session id.
func SnapshotKeyFor(sessionID string) string {
	if sessionID == "" {
		return SnapshotKey
	}
	return sessionID + ":" + SnapshotKey
}

// Store is the product store used by the API. Each call holds mu for its
// whole read-modify-write so snapshot mutations never interleave.
type Store struct {
	mu   sync.Mutex
	repo Repository
	seed []Product
}

func NewStore(repo Repository, seed []Product) *Store {
	return &Store{repo: repo, seed: cloneProducts(seed)}
}

func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.repo.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Load returns the current snapshot, seeding the repository on first use.
func (s *Store) Load(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) Save(ctx context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, cloneProducts(products)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id int) (Product, bool, error) {
	products, err := s.Load(ctx)
	if err != nil {
		return Product{}, false, err
	}

	i := indexOf(products, id)
	if i < 0 {
		return Product{}, false, nil
	}
	return products[i], true, nil
}

// AppendComment prepends c to the product's comments, recomputes its rating
// and persists the full snapshot. A zero c.ID is replaced by the next free
// comment id.
func (s *Store) AppendComment(ctx context.Context, id int, c Comment) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadLocked(ctx)
	if err != nil {
		return Product{}, err
	}

	i := indexOf(products, id)
	if i < 0 {
		return Product{}, ErrNotFound
	}

	if c.ID == 0 {
		c.ID = nextCommentID(products)
	}

	p := &products[i]
	p.Comments = append([]Comment{c}, p.Comments...)
	p.Rating = MeanRating(p.Comments)

	if err := s.repo.Save(ctx, products); err != nil {
		return Product{}, fmt.Errorf("save snapshot: %w", err)
	}
	return p.clone(), nil
}

func (s *Store) loadLocked(ctx context.Context) ([]Product, error) {
	products, err := s.repo.Load(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, ErrNoSnapshot) {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	products = cloneProducts(s.seed)
	if err := s.repo.Save(ctx, products); err != nil {
		return nil, fmt.Errorf("seed snapshot: %w", err)
	}
	return cloneProducts(products), nil
}

// nextCommentID is one past the highest comment id in the snapshot.
func nextCommentID(products []Product) int64 {
	var highest int64
	for _, p := range products {
		for _, c := range p.Comments {
			if c.ID > highest {
				highest = c.ID
			}
		}
	}
	return highest + 1
}

func indexOf(products []Product, id int) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func encodeSnapshot(products []Product) ([]byte, error) {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.normalized()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return products, nil
}
