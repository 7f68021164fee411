// Package postgres implements the store.Store interface on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probelab/pagecheck/internal/store"
)

// foreign_key_violation, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgForeignKeyViolation = "23503"

// Config controls the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store persists URLs and checks in Postgres.
type Store struct {
	db DB
}

// New connects a pool, verifies it with a ping, and ensures the schema exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{db: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an existing connection; used by tests with pgxmock.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS urls (
		id         BIGSERIAL PRIMARY KEY,
		address    TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS checks (
		id          BIGSERIAL PRIMARY KEY,
		url_id      BIGINT NOT NULL REFERENCES urls(id),
		status_code INTEGER,
		title       TEXT NOT NULL DEFAULT '',
		h1          TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_checks_url_id_created_at_id
		ON checks (url_id, created_at DESC, id DESC);
	`
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// GetOrCreateURL inserts the address and falls back to reading the existing
// row when the uniqueness constraint rejects the insert. The constraint, not
// application-level locking, guarantees a single row per address.
func (s *Store) GetOrCreateURL(ctx context.Context, address string) (store.URL, bool, error) {
	insert := `
		INSERT INTO urls (address)
		VALUES ($1)
		ON CONFLICT (address) DO NOTHING
		RETURNING id, created_at
	`
	u := store.URL{Address: address}
	err := s.db.QueryRow(ctx, insert, address).Scan(&u.ID, &u.CreatedAt)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return store.URL{}, false, fmt.Errorf("insert url: %w", err)
	}

	// Conflict: another request owns the row, read it back.
	sel := `SELECT id, created_at FROM urls WHERE address = $1`
	if err := s.db.QueryRow(ctx, sel, address).Scan(&u.ID, &u.CreatedAt); err != nil {
		return store.URL{}, false, fmt.Errorf("read url after conflict: %w", err)
	}
	return u, false, nil
}

// GetURL returns the URL with the given id, or store.ErrNotFound.
func (s *Store) GetURL(ctx context.Context, id int64) (store.URL, error) {
	query := `SELECT id, address, created_at FROM urls WHERE id = $1`
	var u store.URL
	err := s.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Address, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.URL{}, store.ErrNotFound
		}
		return store.URL{}, fmt.Errorf("get url: %w", err)
	}
	return u, nil
}

// ListURLs returns every registered URL in ascending id order.
func (s *Store) ListURLs(ctx context.Context) ([]store.URL, error) {
	query := `SELECT id, address, created_at FROM urls ORDER BY id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	defer rows.Close()

	var urls []store.URL
	for rows.Next() {
		var u store.URL
		if err := rows.Scan(&u.ID, &u.Address, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan url row: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url rows: %w", err)
	}
	return urls, nil
}

// InsertCheck appends a check row and returns it with id and created_at set.
func (s *Store) InsertCheck(ctx context.Context, check store.Check) (store.Check, error) {
	query := `
		INSERT INTO checks (url_id, status_code, title, h1, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		check.URLID,
		check.StatusCode,
		check.Title,
		check.H1,
		check.Description,
	).Scan(&check.ID, &check.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return store.Check{}, store.ErrNotFound
		}
		return store.Check{}, fmt.Errorf("insert check: %w", err)
	}
	return check, nil
}

// ListChecks returns the history for a URL, newest first.
func (s *Store) ListChecks(ctx context.Context, urlID int64) ([]store.Check, error) {
	query := `
		SELECT id, url_id, status_code, title, h1, description, created_at
		FROM checks
		WHERE url_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.Query(ctx, query, urlID)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()
	return scanChecks(rows)
}

// LatestChecks returns the most recent check per URL id using DISTINCT ON.
func (s *Store) LatestChecks(ctx context.Context) (map[int64]store.Check, error) {
	query := `
		SELECT DISTINCT ON (url_id)
			id, url_id, status_code, title, h1, description, created_at
		FROM checks
		ORDER BY url_id, created_at DESC, id DESC
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("latest checks: %w", err)
	}
	defer rows.Close()

	checks, err := scanChecks(rows)
	if err != nil {
		return nil, err
	}
	latest := make(map[int64]store.Check, len(checks))
	for _, c := range checks {
		latest[c.URLID] = c
	}
	return latest, nil
}

// Ping verifies the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.db.Close()
}

func scanChecks(rows pgx.Rows) ([]store.Check, error) {
	var checks []store.Check
	for rows.Next() {
		var c store.Check
		if err := rows.Scan(
			&c.ID,
			&c.URLID,
			&c.StatusCode,
			&c.Title,
			&c.H1,
			&c.Description,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan check row: %w", err)
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check rows: %w", err)
	}
	return checks, nil
}
