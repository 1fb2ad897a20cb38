// Package sales implements the CSV sales feed adapter. It opens the feed
// file, optionally decodes a non-UTF-8 charset, collapses duplicate rows by a
// configured business key, and maps each surviving row onto the typed
// model.SaleRecord schema.
//
// Header handling is forgiving (lowercased, spaces to underscores, UTF-8 BOM
// stripped) but the six required columns must all be present; anything else
// in the feed is ignored.
package sales

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"salespipe/internal/model"
)

// Required sales feed columns, after header normalization.
var requiredColumns = []string{
	model.ColCustomerID,
	model.ColOrderID,
	model.ColOrderDate,
	model.ColProductID,
	model.ColQuantity,
	model.ColPrice,
}

// Options configures the adapter. Path is required; everything else is
// optional.
type Options struct {
	// Path is the local filesystem path to the sales CSV.
	Path string

	// Encoding selects the input charset: "" / "utf-8" (passthrough),
	// "latin-1" / "iso-8859-1", or "windows-1252".
	Encoding string

	// DedupKeys names the columns forming the business key for duplicate
	// collapse. Empty disables dedup.
	DedupKeys []string

	// DedupPolicy selects the winner among duplicates: "keep-first"
	// (default) or "keep-last".
	DedupPolicy string
}

// Source reads sales records from a local CSV feed.
type Source struct{ opt Options }

// New constructs a Source from opt.
func New(opt Options) *Source { return &Source{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Fetch reads, dedups, and maps the full sales feed. Any unreadable or
// unmappable row is an error; the feed is expected to be well-formed.
func (s *Source) Fetch(ctx context.Context) ([]model.SaleRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(s.opt.Path)
	if err != nil {
		return nil, fmt.Errorf("sales: open %s: %w", s.opt.Path, err)
	}
	defer f.Close()

	r, err := decodeReader(f, s.opt.Encoding)
	if err != nil {
		return nil, fmt.Errorf("sales: %w", err)
	}

	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("sales: read csv header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, fmt.Errorf("sales: %w", err)
	}

	var raw [][]string
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sales: row %d: %w", line, err)
		}
		raw = append(raw, row)
	}

	raw = dedup(raw, idx, s.opt.DedupKeys, s.opt.DedupPolicy)

	out := make([]model.SaleRecord, 0, len(raw))
	for i, row := range raw {
		rec, err := mapRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("sales: row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodeReader wraps r with a charset decoder when the feed is not UTF-8.
func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	var dec *encoding.Decoder
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin-1", "iso-8859-1":
		dec = charmap.ISO8859_1.NewDecoder()
	case "windows-1252":
		dec = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	return transform.NewReader(r, dec), nil
}

// headerIndex normalizes the header row and returns a column name to index
// map, verifying that all required columns are present.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		c = strings.ReplaceAll(strings.ToLower(c), " ", "_")
		idx[c] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %q in header", col)
		}
	}
	return idx, nil
}

// dedup collapses duplicate rows sharing the configured business key. The
// key is the xxh3 hash of the key fields joined with a NUL separator; with
// "keep-first" the earliest occurrence wins, with "keep-last" the latest.
// Output preserves the input order of the winning rows.
func dedup(rows [][]string, idx map[string]int, keys []string, policy string) [][]string {
	if len(rows) == 0 || len(keys) == 0 {
		return rows
	}

	keepLast := strings.ToLower(strings.TrimSpace(policy)) == "keep-last"

	keyOf := func(row []string) (uint64, bool) {
		var b strings.Builder
		for _, k := range keys {
			i, ok := idx[k]
			if !ok || i >= len(row) {
				// Unknown key column; leave the row out of the dedup domain.
				return 0, false
			}
			b.WriteString(row[i])
			b.WriteByte(0)
		}
		return xxh3.HashString(b.String()), true
	}

	winner := make(map[uint64]int, len(rows))
	for i, row := range rows {
		h, ok := keyOf(row)
		if !ok {
			continue
		}
		if _, seen := winner[h]; !seen || keepLast {
			winner[h] = i
		}
	}

	out := rows[:0:0]
	for i, row := range rows {
		h, ok := keyOf(row)
		if !ok {
			out = append(out, row)
			continue
		}
		if winner[h] == i {
			out = append(out, row)
		}
	}
	return out
}

// orderDateFormats are the accepted order_date layouts, tried in order.
var orderDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// mapRow converts one raw CSV row into a typed SaleRecord.
func mapRow(row []string, idx map[string]int) (model.SaleRecord, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	customerID, err := strconv.ParseInt(field(model.ColCustomerID), 10, 64)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("customer_id: %w", err)
	}
	orderID, err := strconv.ParseInt(field(model.ColOrderID), 10, 64)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("order_id: %w", err)
	}
	productID, err := strconv.ParseInt(field(model.ColProductID), 10, 64)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("product_id: %w", err)
	}
	quantity, err := strconv.ParseInt(field(model.ColQuantity), 10, 64)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := strconv.ParseFloat(field(model.ColPrice), 64)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("price: %w", err)
	}
	orderDate, err := parseOrderDate(field(model.ColOrderDate))
	if err != nil {
		return model.SaleRecord{}, err
	}

	return model.SaleRecord{
		CustomerID: customerID,
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   quantity,
		Price:      price,
		OrderDate:  orderDate,
	}, nil
}

// parseOrderDate parses an ISO-style order date, trying the accepted layouts
// in order. Dates without an explicit zone are treated as UTC.
func parseOrderDate(s string) (time.Time, error) {
	for _, layout := range orderDateFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("order_date %q is not ISO-parsable", s)
}
