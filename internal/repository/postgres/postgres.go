package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Backend stores each collection as one JSONB row.
type Backend struct {
	db *sqlx.DB
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	b := New(db)
	if err := b.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func New(db *sqlx.DB) *Backend {
	return &Backend{db: db}
}

// Migrate creates the collections table.
func (b *Backend) Migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	return nil
}

func (b *Backend) Read(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := b.db.GetContext(ctx, &body, `SELECT body FROM collections WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return body, nil
}

func (b *Backend) Write(ctx context.Context, name string, data []byte) error {
	query := `
		INSERT INTO collections (name, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`
	if _, err := b.db.ExecContext(ctx, query, name, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := b.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)`, name)
	return exists, err
}

// Lock holds a session-level advisory lock keyed by name on a dedicated
// connection until unlock is called.
func (b *Backend) Lock(ctx context.Context, name string) (func(), error) {
	conn, err := b.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, name); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", name, err)
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, name)
		conn.Close()
	}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
