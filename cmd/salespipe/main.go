// Command salespipe runs the retail sales batch integration: it pulls
// customers from the user directory API, sales from a CSV feed, and per-order
// weather from the weather API, joins them into one enriched table, persists
// it, and writes the six catalog aggregations as tables and chart images.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"salespipe/internal/chart"
	"salespipe/internal/config"
	"salespipe/internal/metrics"
	"salespipe/internal/metrics/prompush"
	"salespipe/internal/pipeline"
	"salespipe/internal/source/sales"
	"salespipe/internal/source/users"
	"salespipe/internal/source/weather"
	"salespipe/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "salespipe/internal/storage/all"
)

// main loads the run config, optionally initializes a metrics backend, wires
// the adapters and sinks, and executes the run. Exit code 0 on success, 1 on
// any fatal error.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipeline.json", "run config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	defer f.Close()

	var p config.Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		fatalf("decode config: %v", err)
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			log.Printf("metrics: url=%v, backend=%v, job=%v", gwURL, backendName, p.Job)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: users=%s sales=%s storage=%s charts=%s",
			p.Sources.Users.URL, p.Sources.Sales.Path, p.Storage.Kind, p.Charts.Dir)
	}

	repo, err := storage.Open(ctx, p.Storage.Kind, p.Storage.DB.DSN)
	if err != nil {
		fatalf("storage: %v", err)
	}
	defer repo.Close()

	wc := weather.New(weather.Config{
		BaseURL:    p.Sources.Weather.BaseURL,
		APIKey:     p.ResolveWeatherKey(),
		Timeout:    time.Duration(p.Sources.Weather.TimeoutSeconds) * time.Second,
		MaxRetries: p.Sources.Weather.MaxRetries,
	})

	deps := pipeline.Deps{
		Users: users.New(users.Config{
			URL:        p.Sources.Users.URL,
			Timeout:    time.Duration(p.Sources.Users.TimeoutSeconds) * time.Second,
			MaxRetries: p.Sources.Users.MaxRetries,
		}),
		Sales: sales.New(sales.Options{
			Path:        p.Sources.Sales.Path,
			Encoding:    p.Sources.Sales.Encoding,
			DedupKeys:   p.Sources.Sales.DedupKeys,
			DedupPolicy: p.Sources.Sales.DedupPolicy,
		}),
		Weather: wc.Lookup,
		Repo:    repo,
		Charts:  chart.NewRenderer(p.Charts.Dir, p.Charts.Width, p.Charts.Height),
	}

	if err := pipeline.Run(ctx, p, deps); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
