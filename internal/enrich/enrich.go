// Package enrich builds the enriched table: it inner-joins customers with
// sales on the customer identifier, derives the computed columns, and
// attaches the per-order weather context.
package enrich

import (
	"context"
	"fmt"
	"time"

	"salespipe/internal/model"
)

// LookupFunc resolves the weather observation for one joined row, keyed by
// coordinates and the order's epoch seconds. Implemented by
// weather.Client.Lookup in production and stubbed in tests.
type LookupFunc func(ctx context.Context, lat, lng float64, unix int64) (model.Observation, error)

// Enrich inner-joins customers and sales and derives the computed columns.
//
// Join semantics are strict: a customer with no matching sales contributes
// zero rows, and a sales row whose customer_id has no matching customer is
// dropped. This silent exclusion is intentional; the feeds are expected to
// reference each other and anything unmatched is stale data.
//
// Rows are emitted in sales-feed order, joined against the customer list.
// When limit > 0, only the first limit joined rows are carried through the
// weather lookup and into the result; this bounds third-party API calls on
// large feeds.
//
// The first lookup failure aborts with that error; there is no retry or
// partial-fill here beyond what the lookup's own client does.
func Enrich(ctx context.Context, customers []model.Customer, sales []model.SaleRecord, lookup LookupFunc, limit int) ([]model.EnrichedRow, error) {
	if lookup == nil {
		return nil, fmt.Errorf("enrich: lookup must not be nil")
	}

	byID := make(map[int64]model.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	var out []model.EnrichedRow
	for _, s := range sales {
		c, ok := byID[s.CustomerID]
		if !ok {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}

		row := derive(c, s)

		obs, err := lookup(ctx, c.Lat, c.Lng, row.OrderDateUnix)
		if err != nil {
			return nil, fmt.Errorf("enrich: order %d: %w", s.OrderID, err)
		}
		row.Weather = obs.Condition
		row.Temp = obs.Temp

		out = append(out, row)
	}
	return out, nil
}

// derive builds the enriched row for one (customer, sale) pair, minus the
// weather columns.
func derive(c model.Customer, s model.SaleRecord) model.EnrichedRow {
	d := s.OrderDate.UTC()
	return model.EnrichedRow{
		Name:          c.Name,
		CustomerID:    c.ID,
		Username:      c.Username,
		Email:         c.Email,
		Lat:           c.Lat,
		Lng:           c.Lng,
		OrderID:       s.OrderID,
		ProductID:     s.ProductID,
		Quantity:      s.Quantity,
		Price:         s.Price,
		OrderDate:     d,
		OrderDateUnix: d.Unix(),
		TotalAmount:   float64(s.Quantity) * s.Price,
		OrderQuarter:  QuarterBucket(d),
		OrderMonth:    MonthBucket(d),
	}
}

// QuarterBucket renders the "<year>-<quarter>" bucket for t, without zero
// padding ("2021-3" for July 2021).
func QuarterBucket(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%d-%d", t.Year(), q)
}

// MonthBucket renders the "<year>-<month>" bucket for t, without zero
// padding ("2021-7" for July 2021).
func MonthBucket(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}
