package sales

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeFeed writes a temp CSV and returns its path.
func writeFeed(tb testing.TB, data string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		tb.Fatalf("write feed: %v", err)
	}
	return path
}

const feedHeader = "customer_id,order_id,order_date,product_id,quantity,price\n"

// TestFetch_MapsRows verifies basic CSV to SaleRecord mapping.
func TestFetch_MapsRows(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, feedHeader+
		"1,100,2021-07-15,7,3,9.5\n"+
		"2,101,2021-08-01 13:45:00,8,1,19.99\n")

	src := New(Options{Path: path})
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	first := got[0]
	if first.CustomerID != 1 || first.OrderID != 100 || first.ProductID != 7 || first.Quantity != 3 || first.Price != 9.5 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	wantDate := time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC)
	if !first.OrderDate.Equal(wantDate) {
		t.Fatalf("order_date = %v, want %v", first.OrderDate, wantDate)
	}

	wantDate = time.Date(2021, 8, 1, 13, 45, 0, 0, time.UTC)
	if !got[1].OrderDate.Equal(wantDate) {
		t.Fatalf("order_date = %v, want %v", got[1].OrderDate, wantDate)
	}
}

// TestFetch_HeaderNormalization verifies headers survive BOM, case, and
// space variations.
func TestFetch_HeaderNormalization(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, "\uFEFFCustomer ID,Order ID,Order Date,Product ID,Quantity,Price\n"+
		"5,200,2022-01-02,3,2,4.25\n")

	src := New(Options{Path: path})
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 || got[0].CustomerID != 5 || got[0].OrderID != 200 {
		t.Fatalf("unexpected records: %+v", got)
	}
}

// TestFetch_MissingColumn verifies a feed without a required column is
// rejected up front.
func TestFetch_MissingColumn(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, "customer_id,order_id,order_date,product_id,quantity\n"+
		"1,100,2021-07-15,7,3\n")

	src := New(Options{Path: path})
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for missing price column")
	}
}

// TestFetch_BadRow verifies that an unparsable field aborts the read.
func TestFetch_BadRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  string
	}{
		{"non-numeric quantity", "1,100,2021-07-15,7,three,9.5"},
		{"non-numeric price", "1,100,2021-07-15,7,3,cheap"},
		{"bad date", "1,100,July 15th,7,3,9.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFeed(t, feedHeader+tc.row+"\n")
			src := New(Options{Path: path})
			if _, err := src.Fetch(context.Background()); err == nil {
				t.Fatalf("expected error for row %q", tc.row)
			}
		})
	}
}

// TestFetch_DedupKeepFirst verifies the default duplicate policy keeps the
// earliest occurrence and preserves feed order.
func TestFetch_DedupKeepFirst(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, feedHeader+
		"1,100,2021-07-15,7,3,9.5\n"+
		"2,101,2021-07-16,8,1,5.0\n"+
		"9,100,2021-07-17,9,9,99.0\n")

	src := New(Options{Path: path, DedupKeys: []string{"order_id"}})
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(got))
	}
	if got[0].OrderID != 100 || got[0].CustomerID != 1 {
		t.Fatalf("keep-first should keep the earliest occurrence, got %+v", got[0])
	}
	if got[1].OrderID != 101 {
		t.Fatalf("feed order not preserved, got %+v", got)
	}
}

// TestFetch_DedupKeepLast verifies the keep-last policy keeps the latest
// occurrence.
func TestFetch_DedupKeepLast(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, feedHeader+
		"1,100,2021-07-15,7,3,9.5\n"+
		"2,101,2021-07-16,8,1,5.0\n"+
		"9,100,2021-07-17,9,9,99.0\n")

	src := New(Options{Path: path, DedupKeys: []string{"order_id"}, DedupPolicy: "keep-last"})
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(got))
	}
	if got[0].OrderID != 101 {
		t.Fatalf("expected order 101 first, got %+v", got[0])
	}
	if got[1].OrderID != 100 || got[1].CustomerID != 9 {
		t.Fatalf("keep-last should keep the latest occurrence, got %+v", got[1])
	}
}

// TestFetch_CompositeDedupKey verifies dedup over a multi-column key.
func TestFetch_CompositeDedupKey(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, feedHeader+
		"1,100,2021-07-15,7,3,9.5\n"+
		"1,100,2021-07-15,8,1,5.0\n"+ // same order, different product: kept
		"1,100,2021-07-15,7,2,9.5\n") // same order and product: dropped

	src := New(Options{Path: path, DedupKeys: []string{"order_id", "product_id"}})
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Quantity != 3 || got[1].ProductID != 8 {
		t.Fatalf("unexpected survivors: %+v", got)
	}
}

// TestFetch_Latin1Encoding verifies the charset decoder path. The byte 0xE9
// is é in ISO-8859-1 and invalid as standalone UTF-8.
func TestFetch_Latin1Encoding(t *testing.T) {
	t.Parallel()

	data := []byte("customer_id,order_id,order_date,product_id,quantity,price,note\n" +
		"1,100,2021-07-15,7,3,9.5,caf\xe9\n")
	path := filepath.Join(t.TempDir(), "latin1.csv")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write feed: %v", err)
	}

	src := New(Options{Path: path, Encoding: "latin-1"})
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != 100 {
		t.Fatalf("unexpected records: %+v", got)
	}
}

// TestFetch_UnsupportedEncoding verifies unknown charsets are rejected.
func TestFetch_UnsupportedEncoding(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, feedHeader+"1,100,2021-07-15,7,3,9.5\n")
	src := New(Options{Path: path, Encoding: "ebcdic"})
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for unsupported encoding")
	}
}

// TestFetch_MissingFile verifies a helpful error for an absent feed.
func TestFetch_MissingFile(t *testing.T) {
	t.Parallel()

	src := New(Options{Path: filepath.Join(t.TempDir(), "nope.csv")})
	_, err := src.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "open") {
		t.Fatalf("error should mention open failure, got %v", err)
	}
}

// TestFetch_ContextCanceled verifies cancellation short-circuits the read.
func TestFetch_ContextCanceled(t *testing.T) {
	t.Parallel()

	path := writeFeed(t, feedHeader+"1,100,2021-07-15,7,3,9.5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := New(Options{Path: path})
	if _, err := src.Fetch(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
