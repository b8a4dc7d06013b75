package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

var _ Repository = (*FileStore)(nil)

// FileStore keeps one JSON document per prediction in a directory
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create predictions directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path maps an ID to its file, rejecting anything that could escape the directory
func (s *FileStore) path(id string) (string, bool) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", false
	}
	return filepath.Join(s.dir, id+".json"), true
}

func (s *FileStore) Put(ctx context.Context, r *models.PredictionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("prediction must have an id")
	}
	path, ok := s.path(r.ID)
	if !ok {
		return fmt.Errorf("invalid prediction id %q", r.ID)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// write then rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write prediction file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write prediction file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := s.path(id)
	if !ok {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadPrediction(path)
}

func (s *FileStore) List(ctx context.Context, opts ListOptions) ([]*models.PredictionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictions directory: %w", err)
	}

	var results []*models.PredictionResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		r, err := loadPrediction(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			log.Printf("Warning: skipping unreadable prediction %s: %v", entry.Name(), err)
			continue
		}
		results = append(results, r)
	}

	return filterAndSort(results, opts), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := s.path(id)
	if !ok {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete prediction: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read predictions directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to delete prediction: %w", err)
		}
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func loadPrediction(path string) (*models.PredictionResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction file: %w", err)
	}

	var r models.PredictionResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse prediction: %w", err)
	}
	return &r, nil
}
