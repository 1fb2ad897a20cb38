// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "sources.weather.max_rows"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; it returns a slice of Issue values, and callers decide
// whether to treat warnings as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateUsers(p.Sources.Users)...)
	issues = append(issues, validateSales(p.Sources.Sales)...)
	issues = append(issues, validateWeather(p.Sources.Weather)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateCharts(p.Charts)...)

	return issues
}

func validateUsers(u Users) []Issue {
	var issues []Issue

	if strings.TrimSpace(u.URL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.users.url",
			Message:  "users source requires a non-empty url",
		})
	} else if _, err := url.Parse(u.URL); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.users.url",
			Message:  fmt.Sprintf("users url is not parseable: %v", err),
		})
	}
	if u.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.users.timeout_seconds",
			Message:  "timeout_seconds must not be negative",
		})
	}
	if u.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.users.max_retries",
			Message:  "max_retries must not be negative",
		})
	}

	return issues
}

func validateSales(s Sales) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.sales.path",
			Message:  "sales source requires a non-empty path",
		})
	}

	switch strings.ToLower(strings.TrimSpace(s.Encoding)) {
	case "", "utf-8", "utf8", "latin-1", "iso-8859-1", "windows-1252":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.sales.encoding",
			Message:  fmt.Sprintf("unsupported encoding %q", s.Encoding),
		})
	}

	switch strings.ToLower(strings.TrimSpace(s.DedupPolicy)) {
	case "", "keep-first", "keep-last":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.sales.dedup_policy",
			Message:  fmt.Sprintf("unknown dedup policy %q; use keep-first or keep-last", s.DedupPolicy),
		})
	}
	if s.DedupPolicy != "" && len(s.DedupKeys) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sources.sales.dedup_keys",
			Message:  "dedup_policy is set but dedup_keys is empty; dedup is disabled",
		})
	}

	return issues
}

func validateWeather(w Weather) []Issue {
	var issues []Issue

	if strings.TrimSpace(w.BaseURL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.weather.base_url",
			Message:  "weather source requires a non-empty base_url",
		})
	}
	if strings.TrimSpace(w.APIKey) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sources.weather.api_key",
			Message:  "api_key is empty; the WEATHER_API_KEY environment variable must be set at run time",
		})
	}
	if w.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.weather.timeout_seconds",
			Message:  "timeout_seconds must not be negative",
		})
	}
	if w.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.weather.max_retries",
			Message:  "max_retries must not be negative",
		})
	}
	if w.MaxRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources.weather.max_rows",
			Message:  "max_rows must not be negative; zero disables the limit",
		})
	}

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; supported: sqlite, postgres", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.DB.EnrichedTable) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.enriched_table",
			Message:  "storage.db.enriched_table must not be empty",
		})
	}

	return issues
}

func validateCharts(c Charts) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "charts.dir",
			Message:  "charts.dir must not be empty",
		})
	}
	if c.Width < 0 || c.Height < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "charts",
			Message:  "chart width/height must not be negative",
		})
	}

	return issues
}
