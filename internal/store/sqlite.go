package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"tradecal/internal/exchange"
)

// Compile-time interface check.
var _ ScheduleStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	name       TEXT PRIMARY KEY,
	config     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore implements ScheduleStore backed by a SQLite database. Each
// configuration is stored as YAML text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schedule table if needed and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSchedule validates cfg and inserts or replaces it.
func (s *SQLiteStore) SaveSchedule(ctx context.Context, cfg exchange.Config) error {
	if _, err := cfg.Build(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", cfg.Name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exchanges (name, config, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`,
		cfg.Name, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving %s: %w", cfg.Name, err)
	}
	return nil
}

// GetSchedule returns the configuration stored under name.
func (s *SQLiteStore) GetSchedule(ctx context.Context, name string) (exchange.Config, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM exchanges WHERE name = ?`, name).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return exchange.Config{}, fmt.Errorf("exchange %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return exchange.Config{}, err
	}

	var cfg exchange.Config
	if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
		return exchange.Config{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	return cfg, nil
}

// ListSchedules returns all stored exchange names sorted by name.
func (s *SQLiteStore) ListSchedules(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM exchanges ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteSchedule removes the configuration stored under name.
func (s *SQLiteStore) DeleteSchedule(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("exchange %s: %w", name, ErrNotFound)
	}
	return nil
}
