// Package model defines the typed records that flow through the pipeline:
// the three source record shapes (Customer, SaleRecord, Observation) and the
// joined, derived-column-augmented EnrichedRow.
//
// The column name constants below are the single source of truth for the
// enriched table schema. Aggregation definitions reference columns by these
// names, and the storage layer persists them in the order returned by
// EnrichedColumns.
package model

import "time"

// Enriched table column names.
const (
	ColName          = "name"
	ColCustomerID    = "customer_id"
	ColUsername      = "username"
	ColEmail         = "email"
	ColLat           = "lat"
	ColLng           = "lng"
	ColOrderID       = "order_id"
	ColProductID     = "product_id"
	ColQuantity      = "quantity"
	ColPrice         = "price"
	ColOrderDate     = "order_date"
	ColOrderDateUnix = "order_date_unix"
	ColTotalAmount   = "total_amount"
	ColOrderQuarter  = "order_quarter"
	ColOrderMonth    = "order_month"
	ColWeather       = "weather"
	ColTemp          = "temp"
)

// Customer is one record from the user directory endpoint, with the nested
// geo coordinates already flattened and coerced to float64.
type Customer struct {
	ID       int64
	Name     string
	Username string
	Email    string
	Lat      float64
	Lng      float64
}

// SaleRecord is one row of the sales feed after typed mapping.
type SaleRecord struct {
	CustomerID int64
	OrderID    int64
	ProductID  int64
	Quantity   int64
	Price      float64
	OrderDate  time.Time
}

// Observation is the weather context for one order: the primary condition
// label and the temperature reported for the order's time and place.
type Observation struct {
	Condition string
	Temp      float64
}

// EnrichedRow is one sales transaction joined with its customer and weather
// context, plus the derived columns.
type EnrichedRow struct {
	Name          string
	CustomerID    int64
	Username      string
	Email         string
	Lat           float64
	Lng           float64
	OrderID       int64
	ProductID     int64
	Quantity      int64
	Price         float64
	OrderDate     time.Time
	OrderDateUnix int64
	TotalAmount   float64
	OrderQuarter  string
	OrderMonth    string
	Weather       string
	Temp          float64
}

// EnrichedColumns returns the enriched table column names in persistence
// order.
func EnrichedColumns() []string {
	return []string{
		ColName, ColCustomerID, ColUsername, ColEmail, ColLat, ColLng,
		ColOrderID, ColProductID, ColQuantity, ColPrice,
		ColOrderDate, ColOrderDateUnix, ColTotalAmount,
		ColOrderQuarter, ColOrderMonth, ColWeather, ColTemp,
	}
}

// Values returns the row's column values aligned to EnrichedColumns. The
// order date is rendered in RFC 3339 so every backend stores the same text.
func (r EnrichedRow) Values() []any {
	return []any{
		r.Name, r.CustomerID, r.Username, r.Email, r.Lat, r.Lng,
		r.OrderID, r.ProductID, r.Quantity, r.Price,
		r.OrderDate.UTC().Format(time.RFC3339), r.OrderDateUnix, r.TotalAmount,
		r.OrderQuarter, r.OrderMonth, r.Weather, r.Temp,
	}
}
