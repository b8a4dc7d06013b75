// Package store persists prediction results behind a small repository interface.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kartoza/plasma-dashboard/internal/config"
	"github.com/kartoza/plasma-dashboard/internal/models"
)

// ErrNotFound is returned when a prediction ID does not exist
var ErrNotFound = errors.New("prediction not found")

// ListOptions filters List results. Zero values mean no limit and any status.
type ListOptions struct {
	Limit  int
	Status models.Status
}

// Repository stores prediction results
type Repository interface {
	Put(ctx context.Context, r *models.PredictionResult) error
	Get(ctx context.Context, id string) (*models.PredictionResult, error)
	// List returns results newest first
	List(ctx context.Context, opts ListOptions) ([]*models.PredictionResult, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

// Open creates the repository selected by cfg.StoreBackend
func Open(cfg config.Config) (Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		capacity := cfg.MemoryCapacity
		if capacity <= 0 {
			capacity = DefaultMemoryCapacity
		}
		return NewMemoryStore(capacity)
	case config.BackendFile:
		return NewFileStore(cfg.PredictionsDir())
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.DBDriver, cfg.DatabasePath())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// filterAndSort applies ListOptions to an unordered slice
func filterAndSort(results []*models.PredictionResult, opts ListOptions) []*models.PredictionResult {
	filtered := results[:0]
	for _, r := range results {
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		filtered = append(filtered, r)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}
	return filtered
}
