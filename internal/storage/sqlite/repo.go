// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Replaced tables are rebuilt inside one transaction with a
// prepared multi-row INSERT; SQLite has no dedicated bulk-load API, but a
// single transaction keeps performance acceptable for the volumes here.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"salespipe/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, dsn string) (storage.Repository, error) {
		return Open(ctx, dsn)
	})
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens a SQLite connection using the provided DSN. DSN is passed
// directly to database/sql; for example:
//
//	"file:retail_company.db?cache=shared"
//	":memory:"
func Open(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the underlying connection.
func (r *Repository) Close() { _ = r.db.Close() }

// ReplaceTable drops, recreates, and fills the named table inside one
// transaction, so readers never observe a half-built table.
func (r *Repository) ReplaceTable(ctx context.Context, name string, cols []storage.Column, rows [][]any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("sqlite: table name must not be empty")
	}
	if len(cols) == 0 {
		return fmt.Errorf("sqlite: table %s: columns must not be empty", name)
	}

	colDefs := make([]string, len(cols))
	colNames := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		colDefs[i] = quoteIdent(c.Name) + " " + c.SQLType
		colNames[i] = quoteIdent(c.Name)
		placeholders[i] = "?"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: drop %s: %w", name, err)
	}
	create := fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		quoteIdent(name),
		strings.Join(colDefs, ",\n  "),
	)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: create %s: %w", name, err)
	}

	insert := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name),
		strings.Join(colNames, ", "),
		strings.Join(placeholders, ", "),
	)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(cols) {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: table %s row %d: length %d != columns length %d", name, i, len(row), len(cols))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: insert into %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit %s: %w", name, err)
	}
	return nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
