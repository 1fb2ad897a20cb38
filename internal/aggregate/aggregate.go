// Package aggregate implements the aggregation pipeline: a declarative
// catalog of group/reduce/order operations over the enriched table, executed
// by one generic driver that persists each result as a table and renders it
// as a chart image.
//
// Each Definition is independent; the driver runs them in catalog order and
// aborts on the first failure, with the failing definition named in the
// surfaced error.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"salespipe/internal/model"
	"salespipe/internal/storage"
)

// Reducer selects how a group's values collapse to one scalar.
type Reducer int

const (
	// ReducerSum is the arithmetic sum of the group's values.
	ReducerSum Reducer = iota
	// ReducerMean is the arithmetic mean of the group's values.
	ReducerMean
)

// Order selects the row order of a definition's result.
type Order int

const (
	// OrderGroup keeps first-seen group order.
	OrderGroup Order = iota
	// OrderValueDesc sorts by reduced value, descending, with first-seen
	// group order breaking ties (stable).
	OrderValueDesc
	// OrderChronological sorts "year-unit" bucket keys by the numeric
	// (year, unit) pair, ascending. Buckets are unpadded, so a plain string
	// sort would misplace multi-digit units; this order does not.
	OrderChronological
)

// ChartKind selects the chart rendering for a definition.
type ChartKind int

const (
	// ChartBar renders the result as a bar chart.
	ChartBar ChartKind = iota
	// ChartLine renders the result as a line chart.
	ChartLine
)

// Definition declaratively describes one aggregation.
type Definition struct {
	// Name identifies the definition in errors and logs.
	Name string

	// GroupBy is the enriched-table column the rows are grouped by.
	GroupBy string

	// Value is the enriched-table column being reduced. Must be numeric.
	Value string

	// Reducer collapses each group's values.
	Reducer Reducer

	// TopN, when > 0, keeps only the N highest-value groups. Implies the
	// result is sorted by OrderValueDesc before truncation.
	TopN int

	// Order is the result row order.
	Order Order

	// Table is the output table name the result is persisted under.
	Table string

	// ChartKind, ChartTitle, and ChartFile describe the rendered image.
	ChartKind  ChartKind
	ChartTitle string
	ChartFile  string
}

// Group is one row of an aggregation result.
type Group struct {
	Key   string
	Value float64
}

// Result is the ordered outcome of executing one definition.
type Result struct {
	Definition Definition
	Groups     []Group
}

// SchemaError reports a definition referencing a column the enriched table
// does not have, or one that is not usable for its role.
type SchemaError struct {
	Definition string
	Column     string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("definition %s references unknown column %q", e.Definition, e.Column)
}

// TableWriter persists a result table, replacing any prior table of the same
// name. Implemented by the storage backends.
type TableWriter interface {
	ReplaceTable(ctx context.Context, name string, cols []storage.Column, rows [][]any) error
}

// ChartRenderer renders a result as a chart image at path, overwriting any
// existing file.
type ChartRenderer interface {
	Save(path string, kind ChartKind, title string, groups []Group) error
}

// Execute groups and reduces the enriched rows per def and returns the
// ordered result. It does not touch any sink.
func Execute(rows []model.EnrichedRow, def Definition) (Result, error) {
	type acc struct {
		sum   float64
		count int64
	}

	byKey := make(map[string]*acc)
	var order []string

	for _, row := range rows {
		key, ok := groupKey(row, def.GroupBy)
		if !ok {
			return Result{}, &SchemaError{Definition: def.Name, Column: def.GroupBy}
		}
		val, ok := value(row, def.Value)
		if !ok {
			return Result{}, &SchemaError{Definition: def.Name, Column: def.Value}
		}

		a, seen := byKey[key]
		if !seen {
			a = &acc{}
			byKey[key] = a
			order = append(order, key)
		}
		a.sum += val
		a.count++
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		v := a.sum
		if def.Reducer == ReducerMean {
			v = a.sum / float64(a.count)
		}
		groups = append(groups, Group{Key: key, Value: v})
	}

	switch def.Order {
	case OrderValueDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case OrderChronological:
		if err := sortChronological(groups, def.Name); err != nil {
			return Result{}, err
		}
	}

	if def.TopN > 0 && len(groups) > def.TopN {
		groups = groups[:def.TopN]
	}

	return Result{Definition: def, Groups: groups}, nil
}

// Run executes every catalog definition in order against the enriched rows,
// persisting each result and rendering its chart. It aborts on the first
// failure; the returned error names the failing definition.
func Run(ctx context.Context, rows []model.EnrichedRow, catalog []Definition, tables TableWriter, charts ChartRenderer) error {
	for _, def := range catalog {
		res, err := Execute(rows, def)
		if err != nil {
			return err
		}

		cols := []storage.Column{
			{Name: def.GroupBy, SQLType: "TEXT"},
			{Name: def.Value, SQLType: "REAL"},
		}
		tableRows := make([][]any, 0, len(res.Groups))
		for _, g := range res.Groups {
			tableRows = append(tableRows, []any{g.Key, g.Value})
		}
		if err := tables.ReplaceTable(ctx, def.Table, cols, tableRows); err != nil {
			return fmt.Errorf("definition %s: persist table %s: %w", def.Name, def.Table, err)
		}

		if err := charts.Save(def.ChartFile, def.ChartKind, def.ChartTitle, res.Groups); err != nil {
			return fmt.Errorf("definition %s: render chart %s: %w", def.Name, def.ChartFile, err)
		}
	}
	return nil
}

// sortChronological orders bucket keys by their numeric (year, unit) pair.
// A key that does not parse as "year-unit" is a schema-level failure: the
// definition was pointed at a non-bucket column.
func sortChronological(groups []Group, defName string) error {
	type parsed struct {
		year, unit int
	}
	keys := make(map[string]parsed, len(groups))
	for _, g := range groups {
		y, u, ok := parseBucket(g.Key)
		if !ok {
			return fmt.Errorf("definition %s: group key %q is not a year-unit bucket", defName, g.Key)
		}
		keys[g.Key] = parsed{year: y, unit: u}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := keys[groups[i].Key], keys[groups[j].Key]
		if a.year != b.year {
			return a.year < b.year
		}
		return a.unit < b.unit
	})
	return nil
}

// parseBucket splits an unpadded "year-unit" bucket key into its parts.
func parseBucket(s string) (year, unit int, ok bool) {
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, 0, false
	}
	u, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0, 0, false
	}
	return y, u, true
}

// groupKey extracts the group-by column from a row as a string.
func groupKey(r model.EnrichedRow, col string) (string, bool) {
	switch col {
	case model.ColName:
		return r.Name, true
	case model.ColCustomerID:
		return strconv.FormatInt(r.CustomerID, 10), true
	case model.ColUsername:
		return r.Username, true
	case model.ColEmail:
		return r.Email, true
	case model.ColOrderID:
		return strconv.FormatInt(r.OrderID, 10), true
	case model.ColProductID:
		return strconv.FormatInt(r.ProductID, 10), true
	case model.ColOrderQuarter:
		return r.OrderQuarter, true
	case model.ColOrderMonth:
		return r.OrderMonth, true
	case model.ColWeather:
		return r.Weather, true
	default:
		return "", false
	}
}

// value extracts the value column from a row as a float64.
func value(r model.EnrichedRow, col string) (float64, bool) {
	switch col {
	case model.ColQuantity:
		return float64(r.Quantity), true
	case model.ColPrice:
		return r.Price, true
	case model.ColTotalAmount:
		return r.TotalAmount, true
	case model.ColTemp:
		return r.Temp, true
	default:
		return 0, false
	}
}
