package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Config selects and tunes the store backend. A postgres:// DSN opens
// Postgres through pgx; anything else is treated as a SQLite file path.
type Config struct {
	DSN         string
	DialTimeout time.Duration
}

// Store is the disk-backed project store. One row per project, one per
// (project, category) extraction, one per (project, criterion) result.
type Store struct {
	db      *sql.DB
	dialect string // "sqlite" or "pgx"
	logger  *slog.Logger
}

// Open connects to the configured backend and runs the schema migration.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store DSN is required")
	}

	dialect := "sqlite"
	dsn := cfg.DSN
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		dialect = "pgx"
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = cfg.DSN + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	logger.Info("store.open", "dialect", dialect)
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, dialect: dialect, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("store.ready")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck pings the backend to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		name          TEXT PRIMARY KEY,
		files_json    TEXT NOT NULL,
		current_step  INTEGER NOT NULL DEFAULT 1,
		created_at    TIMESTAMP NOT NULL,
		last_modified TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS extractions (
		project           TEXT NOT NULL,
		category          TEXT NOT NULL,
		content_fields    TEXT NOT NULL,
		ignored_fields    TEXT NOT NULL,
		consolidated_text TEXT NOT NULL,
		workflow_used     TEXT NOT NULL,
		extracted_at      TIMESTAMP NOT NULL,
		last_modified     TIMESTAMP NOT NULL,
		reviewed          BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (project, category)
	)`,
	`CREATE TABLE IF NOT EXISTS criterion_results (
		project       TEXT NOT NULL,
		criterion_id  TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		justification TEXT NOT NULL,
		checked_at    TIMESTAMP NOT NULL,
		overridden_at TIMESTAMP,
		PRIMARY KEY (project, criterion_id)
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind converts ?-style placeholders to $N for the pgx dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
