package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

// DefaultMemoryCapacity bounds the in-memory history
const DefaultMemoryCapacity = 500

var _ Repository = (*MemoryStore)(nil)

// MemoryStore keeps the most recently stored predictions in an LRU cache.
// The cache is internally locked, so MemoryStore is safe for concurrent use.
type MemoryStore struct {
	cache *lru.Cache[string, *models.PredictionResult]
}

// NewMemoryStore creates a store holding at most capacity predictions
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	cache, err := lru.New[string, *models.PredictionResult](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Put(ctx context.Context, r *models.PredictionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil || r.ID == "" {
		return fmt.Errorf("prediction must have an id")
	}
	s.cache.Add(r.ID, r)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Peek keeps eviction in insertion order
	r, ok := s.cache.Peek(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*models.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Values does not refresh recency
	return filterAndSort(s.cache.Values(), opts), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.cache.Remove(id) {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}

// Len reports how many predictions are held
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

func (s *MemoryStore) Close() error {
	return nil
}
