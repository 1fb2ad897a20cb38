// Package postgres implements a Postgres-backed storage.Repository using
// pgx v5. Replaced tables are rebuilt inside one transaction; rows go in via
// the COPY protocol, which is the cheapest bulk path Postgres offers.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salespipe/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, dsn string) (storage.Repository, error) {
		return Open(ctx, dsn)
	})
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// Open constructs a Repository from a pgxpool DSN (e.g. "postgresql://...").
func Open(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// ReplaceTable drops, recreates, and COPYs the named table inside one
// transaction, so readers never observe a half-built table.
func (r *Repository) ReplaceTable(ctx context.Context, name string, cols []storage.Column, rows [][]any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("postgres: table name must not be empty")
	}
	if len(cols) == 0 {
		return fmt.Errorf("postgres: table %s: columns must not be empty", name)
	}

	colDefs := make([]string, len(cols))
	colNames := make([]string, len(cols))
	for i, c := range cols {
		colDefs[i] = pgIdent(c.Name) + " " + c.SQLType
		colNames[i] = c.Name
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgFQN(name)); err != nil {
		return fmt.Errorf("postgres: drop %s: %w", name, err)
	}
	create := fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		pgFQN(name),
		strings.Join(colDefs, ",\n  "),
	)
	if _, err := tx.Exec(ctx, create); err != nil {
		return fmt.Errorf("postgres: create %s: %w", name, err)
	}

	for i, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("postgres: table %s row %d: length %d != columns length %d", name, i, len(row), len(cols))
		}
	}
	if _, err := tx.CopyFrom(ctx, tableIdent(name), colNames, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("postgres: copy into %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", name, err)
	}
	return nil
}

// tableIdent splits a possibly schema-qualified name into a pgx Identifier.
func tableIdent(name string) pgx.Identifier {
	parts := strings.Split(name, ".")
	out := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func pgFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, pgIdent(p))
		}
	}
	return strings.Join(out, ".")
}
