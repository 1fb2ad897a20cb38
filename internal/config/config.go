// Package config defines the canonical, JSON-serializable configuration model
// for the pipeline binary. It is intentionally small and explicit so run
// configurations can be loaded from disk and passed through the program
// without additional glue code.
//
// Field names in Go mirror the JSON structure used in run files under
// configs/*.json. Decoding is performed by the standard library.
//
// Example (trimmed):
//
//	{
//	  "job": "retail_sales",
//	  "sources": {
//	    "users":   { "url": "https://jsonplaceholder.typicode.com/users" },
//	    "sales":   { "path": "source_data/random_data.csv" },
//	    "weather": { "base_url": "http://api.openweathermap.org/data/2.5/weather", "max_rows": 5 }
//	  },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:db/retail_company.db", "enriched_table": "transformed_sales" } },
//	  "charts":  { "dir": "visualizations" }
//	}
package config

import "os"

// Pipeline is the top-level object decoded from a run configuration file.
type Pipeline struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Sources configures the three data source adapters.
	Sources Sources `json:"sources"`

	// Storage describes the relational sink all tables are written to.
	Storage Storage `json:"storage"`

	// Charts configures where and how chart images are rendered.
	Charts Charts `json:"charts"`
}

// Sources groups the adapter configurations.
type Sources struct {
	Users   Users   `json:"users"`
	Sales   Sales   `json:"sales"`
	Weather Weather `json:"weather"`
}

// Users configures the HTTP user directory source.
type Users struct {
	// URL is the endpoint returning the JSON array of user objects.
	URL string `json:"url"`

	// TimeoutSeconds is the per-request timeout. Zero uses the client default.
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the retry budget for transient HTTP failures.
	MaxRetries int `json:"max_retries"`
}

// Sales configures the CSV sales feed source.
type Sales struct {
	// Path is the local filesystem path to the sales CSV.
	Path string `json:"path"`

	// Encoding selects the input charset. Supported: "" or "utf-8"
	// (passthrough), "latin-1"/"iso-8859-1", "windows-1252".
	Encoding string `json:"encoding"`

	// DedupKeys names the columns forming the business key used to collapse
	// duplicate feed rows before typed mapping. Empty disables dedup.
	DedupKeys []string `json:"dedup_keys"`

	// DedupPolicy selects the winner among duplicates: "keep-first" (default)
	// or "keep-last".
	DedupPolicy string `json:"dedup_policy"`
}

// Weather configures the per-order weather lookup.
type Weather struct {
	// BaseURL is the weather endpoint; lat, lon, dt and appid are appended
	// as query parameters.
	BaseURL string `json:"base_url"`

	// APIKey authenticates against the weather API. The WEATHER_API_KEY
	// environment variable overrides it so keys can stay out of run files.
	APIKey string `json:"api_key"`

	// TimeoutSeconds is the per-request timeout. Zero uses the client default.
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the retry budget for transient HTTP failures.
	MaxRetries int `json:"max_retries"`

	// MaxRows bounds how many joined rows are carried through the weather
	// lookup and into the enriched table. Zero means no limit. This exists to
	// cap third-party API calls on large feeds.
	MaxRows int `json:"max_rows"`
}

// Storage selects the sink used to persist the enriched table and the
// aggregation result tables.
type Storage struct {
	// Kind selects the backend: "sqlite" or "postgres".
	Kind string `json:"kind"`

	// DB carries the backend-agnostic database settings.
	DB DBConfig `json:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the connection string, passed to the selected driver as-is.
	DSN string `json:"dsn"`

	// EnrichedTable is the table name the enriched dataset is written to.
	EnrichedTable string `json:"enriched_table"`
}

// Charts configures chart image output.
type Charts struct {
	// Dir is the directory chart images are written into. Created if missing.
	Dir string `json:"dir"`

	// Width and Height are the image dimensions in pixels. Zero values use
	// the renderer defaults.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResolveWeatherKey returns the weather API key, preferring the
// WEATHER_API_KEY environment variable over the configured value.
func (p Pipeline) ResolveWeatherKey() string {
	if k := os.Getenv("WEATHER_API_KEY"); k != "" {
		return k
	}
	return p.Sources.Weather.APIKey
}
