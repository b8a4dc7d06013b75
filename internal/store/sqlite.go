package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/kartoza/plasma-dashboard/internal/config"
	"github.com/kartoza/plasma-dashboard/internal/models"
)

var _ Repository = (*SQLiteStore)(nil)

// SQLiteStore keeps predictions in a single SQLite table with the full result as a JSON payload
type SQLiteStore struct {
	db     *sql.DB
	driver string
}

// NewSQLiteStore opens or creates the database at dbPath.
// driver is "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
func NewSQLiteStore(driver, dbPath string) (*SQLiteStore, error) {
	dsn, err := sqliteDSN(driver, dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(driver, dbPath string) (string, error) {
	switch driver {
	case config.DriverMattn:
		return dbPath + "?_journal_mode=WAL&_busy_timeout=5000", nil
	case config.DriverModernc:
		return dbPath + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id         TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		status     TEXT NOT NULL,
		payload    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_predictions_status ON predictions(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Driver returns the database/sql driver name in use
func (s *SQLiteStore) Driver() string {
	return s.driver
}

func (s *SQLiteStore) Put(ctx context.Context, r *models.PredictionResult) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("prediction must have an id")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO predictions (id, created_at, status, payload) VALUES (?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UnixNano(), string(r.Status), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.PredictionResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM predictions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction: %w", err)
	}
	return decodePayload(payload)
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]*models.PredictionResult, error) {
	query := `SELECT payload FROM predictions`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var results []*models.PredictionResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		r, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM predictions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prediction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete prediction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM predictions`); err != nil {
		return fmt.Errorf("failed to clear predictions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodePayload(payload string) (*models.PredictionResult, error) {
	var r models.PredictionResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("failed to parse prediction: %w", err)
	}
	return &r, nil
}
