package sqlite

import (
	"context"
	"testing"

	"salespipe/internal/storage"
)

func openRepo(tb testing.TB) *Repository {
	tb.Helper()
	repo, err := Open(context.Background(), ":memory:")
	if err != nil {
		tb.Fatalf("Open: %v", err)
	}
	tb.Cleanup(repo.Close)
	return repo
}

var testCols = []storage.Column{
	{Name: "name", SQLType: "TEXT"},
	{Name: "total_amount", SQLType: "REAL"},
}

// readAll fetches every row of a table in insertion order.
func readAll(tb testing.TB, repo *Repository, table string) [][2]any {
	tb.Helper()
	rows, err := repo.db.Query(`SELECT "name", "total_amount" FROM "` + table + `"`)
	if err != nil {
		tb.Fatalf("query %s: %v", table, err)
	}
	defer rows.Close()

	var out [][2]any
	for rows.Next() {
		var name string
		var total float64
		if err := rows.Scan(&name, &total); err != nil {
			tb.Fatalf("scan: %v", err)
		}
		out = append(out, [2]any{name, total})
	}
	if err := rows.Err(); err != nil {
		tb.Fatalf("rows: %v", err)
	}
	return out
}

// TestOpen_EmptyDSN verifies an empty DSN is rejected.
func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

// TestReplaceTable_CreatesAndFills verifies a fresh table gets the rows.
func TestReplaceTable_CreatesAndFills(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	rows := [][]any{
		{"Alice", 12.5},
		{"Bob", 7.5},
	}
	if err := repo.ReplaceTable(context.Background(), "totals", testCols, rows); err != nil {
		t.Fatalf("ReplaceTable: %v", err)
	}

	got := readAll(t, repo, "totals")
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0][0] != "Alice" || got[0][1] != 12.5 {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
}

// TestReplaceTable_ReplacesPriorContents verifies a second call fully
// replaces the first table, not appends to it.
func TestReplaceTable_ReplacesPriorContents(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceTable(ctx, "totals", testCols, [][]any{{"Alice", 1.0}, {"Bob", 2.0}}); err != nil {
		t.Fatalf("first ReplaceTable: %v", err)
	}
	if err := repo.ReplaceTable(ctx, "totals", testCols, [][]any{{"Carol", 3.0}}); err != nil {
		t.Fatalf("second ReplaceTable: %v", err)
	}

	got := readAll(t, repo, "totals")
	if len(got) != 1 || got[0][0] != "Carol" {
		t.Fatalf("expected only the replacement rows, got %+v", got)
	}
}

// TestReplaceTable_EmptyRows verifies replacing with zero rows leaves an
// empty table in place.
func TestReplaceTable_EmptyRows(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceTable(ctx, "totals", testCols, [][]any{{"Alice", 1.0}}); err != nil {
		t.Fatalf("first ReplaceTable: %v", err)
	}
	if err := repo.ReplaceTable(ctx, "totals", testCols, nil); err != nil {
		t.Fatalf("second ReplaceTable: %v", err)
	}

	if got := readAll(t, repo, "totals"); len(got) != 0 {
		t.Fatalf("expected empty table, got %+v", got)
	}
}

// TestReplaceTable_RowWidthMismatch verifies a malformed row aborts the
// transaction and leaves any prior table intact.
func TestReplaceTable_RowWidthMismatch(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceTable(ctx, "totals", testCols, [][]any{{"Alice", 1.0}}); err != nil {
		t.Fatalf("seed ReplaceTable: %v", err)
	}

	err := repo.ReplaceTable(ctx, "totals", testCols, [][]any{{"only-one-value"}})
	if err == nil {
		t.Fatalf("expected error for row width mismatch")
	}

	// The failed replace rolled back; the seeded row survives.
	got := readAll(t, repo, "totals")
	if len(got) != 1 || got[0][0] != "Alice" {
		t.Fatalf("rollback did not preserve prior table: %+v", got)
	}
}

// TestReplaceTable_Validation verifies empty names and column sets are
// rejected.
func TestReplaceTable_Validation(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceTable(ctx, " ", testCols, nil); err == nil {
		t.Fatalf("expected error for empty table name")
	}
	if err := repo.ReplaceTable(ctx, "t", nil, nil); err == nil {
		t.Fatalf("expected error for empty columns")
	}
}

// TestFactoryRegistration verifies the package registers itself with the
// storage factory under the "sqlite" kind.
func TestFactoryRegistration(t *testing.T) {
	t.Parallel()

	repo, err := storage.Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer repo.Close()
}
