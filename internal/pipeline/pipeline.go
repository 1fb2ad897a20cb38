// Package pipeline is the sequential run driver: fetch users, fetch sales,
// join and enrich, persist the enriched table, then execute the aggregation
// catalog. Stages run strictly in that order; every stage's failure aborts
// the run with a StageError naming the stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"salespipe/internal/aggregate"
	"salespipe/internal/config"
	"salespipe/internal/enrich"
	"salespipe/internal/metrics"
	"salespipe/internal/model"
	"salespipe/internal/storage"
)

// CustomerSource fetches the customer list. Implemented by users.Source.
type CustomerSource interface {
	Fetch(ctx context.Context) ([]model.Customer, error)
}

// SaleSource reads the sales feed. Implemented by sales.Source.
type SaleSource interface {
	Fetch(ctx context.Context) ([]model.SaleRecord, error)
}

// Deps are the collaborators a run needs. All of them are injected so tests
// can stub the network and the sinks.
type Deps struct {
	Users   CustomerSource
	Sales   SaleSource
	Weather enrich.LookupFunc
	Repo    storage.Repository
	Charts  aggregate.ChartRenderer
}

// Run executes one full pipeline run: three fetch stages, the join/enrich
// stage, the enriched-table write, and the six-definition aggregation stage.
// Seven tables and six chart images are produced on success.
func Run(ctx context.Context, cfg config.Pipeline, deps Deps) error {
	start := time.Now()

	customers, err := fetchUsers(ctx, cfg, deps.Users)
	if err != nil {
		return err
	}
	sales, err := fetchSales(ctx, cfg, deps.Sales)
	if err != nil {
		return err
	}
	enriched, err := enrichRows(ctx, cfg, customers, sales, deps.Weather)
	if err != nil {
		return err
	}
	if err := persistEnriched(ctx, cfg, deps.Repo, enriched); err != nil {
		return err
	}
	if err := runAggregations(ctx, cfg, deps, enriched); err != nil {
		return err
	}

	log.Printf("run complete in %s", time.Since(start).Truncate(time.Millisecond))
	return nil
}

func fetchUsers(ctx context.Context, cfg config.Pipeline, src CustomerSource) ([]model.Customer, error) {
	start := time.Now()
	customers, err := src.Fetch(ctx)
	metrics.RecordStage(cfg.Job, "users", err, time.Since(start))
	if err != nil {
		return nil, &StageError{Stage: "users", Kind: KindNetwork, Err: err}
	}
	metrics.RecordRows(cfg.Job, "customers", int64(len(customers)))
	log.Printf("users: fetched %d customers", len(customers))
	return customers, nil
}

func fetchSales(ctx context.Context, cfg config.Pipeline, src SaleSource) ([]model.SaleRecord, error) {
	start := time.Now()
	sales, err := src.Fetch(ctx)
	metrics.RecordStage(cfg.Job, "sales", err, time.Since(start))
	if err != nil {
		return nil, &StageError{Stage: "sales", Kind: KindDataSource, Err: err}
	}
	metrics.RecordRows(cfg.Job, "sales", int64(len(sales)))
	log.Printf("sales: read %d records", len(sales))
	return sales, nil
}

func enrichRows(ctx context.Context, cfg config.Pipeline, customers []model.Customer, sales []model.SaleRecord, lookup enrich.LookupFunc) ([]model.EnrichedRow, error) {
	start := time.Now()
	enriched, err := enrich.Enrich(ctx, customers, sales, lookup, cfg.Sources.Weather.MaxRows)
	metrics.RecordStage(cfg.Job, "enrich", err, time.Since(start))
	if err != nil {
		// The only I/O inside enrichment is the weather lookup.
		return nil, &StageError{Stage: "enrich", Kind: KindNetwork, Err: err}
	}
	metrics.RecordRows(cfg.Job, "enriched", int64(len(enriched)))
	log.Printf("enrich: joined %d rows with weather context", len(enriched))
	return enriched, nil
}

func persistEnriched(ctx context.Context, cfg config.Pipeline, repo storage.Repository, enriched []model.EnrichedRow) error {
	rows := make([][]any, 0, len(enriched))
	for _, r := range enriched {
		rows = append(rows, r.Values())
	}

	start := time.Now()
	err := repo.ReplaceTable(ctx, cfg.Storage.DB.EnrichedTable, enrichedSchema(), rows)
	metrics.RecordStage(cfg.Job, "persist", err, time.Since(start))
	if err != nil {
		return &StageError{Stage: "persist", Kind: KindSink, Err: err}
	}
	metrics.RecordTables(cfg.Job, 1)
	log.Printf("storage: wrote enriched table %q (%d rows)", cfg.Storage.DB.EnrichedTable, len(rows))
	return nil
}

func runAggregations(ctx context.Context, cfg config.Pipeline, deps Deps, enriched []model.EnrichedRow) error {
	catalog := aggregate.Catalog()

	start := time.Now()
	err := aggregate.Run(ctx, enriched, catalog, deps.Repo, deps.Charts)
	metrics.RecordStage(cfg.Job, "aggregate", err, time.Since(start))
	if err != nil {
		se := &StageError{Stage: "aggregate", Kind: KindSink, Err: err}
		var schemaErr *aggregate.SchemaError
		if errors.As(err, &schemaErr) {
			se.Kind = KindSchema
			se.Definition = schemaErr.Definition
		}
		return se
	}
	metrics.RecordTables(cfg.Job, int64(len(catalog)))
	log.Printf("aggregate: wrote %d tables and %d charts", len(catalog), len(catalog))
	return nil
}

// enrichedSchema returns the enriched table's column definitions, aligned to
// model.EnrichedColumns order.
func enrichedSchema() []storage.Column {
	types := map[string]string{
		model.ColName:          "TEXT",
		model.ColCustomerID:    "INTEGER",
		model.ColUsername:      "TEXT",
		model.ColEmail:         "TEXT",
		model.ColLat:           "REAL",
		model.ColLng:           "REAL",
		model.ColOrderID:       "INTEGER",
		model.ColProductID:     "INTEGER",
		model.ColQuantity:      "INTEGER",
		model.ColPrice:         "REAL",
		model.ColOrderDate:     "TEXT",
		model.ColOrderDateUnix: "INTEGER",
		model.ColTotalAmount:   "REAL",
		model.ColOrderQuarter:  "TEXT",
		model.ColOrderMonth:    "TEXT",
		model.ColWeather:       "TEXT",
		model.ColTemp:          "REAL",
	}

	names := model.EnrichedColumns()
	cols := make([]storage.Column, 0, len(names))
	for _, n := range names {
		t, ok := types[n]
		if !ok {
			// Unreachable unless the model and this map drift apart.
			panic(fmt.Sprintf("pipeline: no SQL type for column %q", n))
		}
		cols = append(cols, storage.Column{Name: n, SQLType: t})
	}
	return cols
}
