package config

import (
	"strings"
	"testing"
)

// validPipeline returns a config that passes validation with no errors.
func validPipeline() Pipeline {
	var p Pipeline
	p.Job = "retail_sales"
	p.Sources.Users.URL = "https://example.com/users"
	p.Sources.Sales.Path = "source_data/random_data.csv"
	p.Sources.Weather.BaseURL = "http://example.com/weather"
	p.Sources.Weather.APIKey = "key"
	p.Storage.Kind = "sqlite"
	p.Storage.DB.DSN = "file:retail.db"
	p.Storage.DB.EnrichedTable = "transformed_sales"
	p.Charts.Dir = "visualizations"
	return p
}

func errorPaths(issues []Issue) map[string]bool {
	out := map[string]bool{}
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			out[iss.Path] = true
		}
	}
	return out
}

// TestValidatePipeline_Valid verifies a complete config yields no errors.
func TestValidatePipeline_Valid(t *testing.T) {
	t.Parallel()

	issues := ValidatePipeline(validPipeline())
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			t.Fatalf("unexpected error issue: %+v", iss)
		}
	}
}

// TestValidatePipeline_Errors verifies each required field produces an error
// at the expected path.
func TestValidatePipeline_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Pipeline)
		wantPath string
	}{
		{"empty job", func(p *Pipeline) { p.Job = "" }, "job"},
		{"empty users url", func(p *Pipeline) { p.Sources.Users.URL = "" }, "sources.users.url"},
		{"negative users timeout", func(p *Pipeline) { p.Sources.Users.TimeoutSeconds = -1 }, "sources.users.timeout_seconds"},
		{"negative users retries", func(p *Pipeline) { p.Sources.Users.MaxRetries = -1 }, "sources.users.max_retries"},
		{"empty sales path", func(p *Pipeline) { p.Sources.Sales.Path = "" }, "sources.sales.path"},
		{"bad sales encoding", func(p *Pipeline) { p.Sources.Sales.Encoding = "ebcdic" }, "sources.sales.encoding"},
		{"bad dedup policy", func(p *Pipeline) { p.Sources.Sales.DedupPolicy = "keep-random" }, "sources.sales.dedup_policy"},
		{"empty weather base_url", func(p *Pipeline) { p.Sources.Weather.BaseURL = "" }, "sources.weather.base_url"},
		{"negative weather max_rows", func(p *Pipeline) { p.Sources.Weather.MaxRows = -1 }, "sources.weather.max_rows"},
		{"empty storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, "storage.kind"},
		{"unknown storage kind", func(p *Pipeline) { p.Storage.Kind = "oracle" }, "storage.kind"},
		{"empty dsn", func(p *Pipeline) { p.Storage.DB.DSN = "" }, "storage.db.dsn"},
		{"empty enriched table", func(p *Pipeline) { p.Storage.DB.EnrichedTable = "" }, "storage.db.enriched_table"},
		{"empty charts dir", func(p *Pipeline) { p.Charts.Dir = "" }, "charts.dir"},
		{"negative chart size", func(p *Pipeline) { p.Charts.Width = -1 }, "charts"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := validPipeline()
			tc.mutate(&p)
			paths := errorPaths(ValidatePipeline(p))
			if !paths[tc.wantPath] {
				t.Fatalf("expected error at %q, got %v", tc.wantPath, paths)
			}
		})
	}
}

// TestValidatePipeline_Warnings verifies warnings do not block but are
// surfaced.
func TestValidatePipeline_Warnings(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Sources.Weather.APIKey = ""
	p.Sources.Sales.DedupPolicy = "keep-first"
	p.Sources.Sales.DedupKeys = nil

	issues := ValidatePipeline(p)

	var warnPaths []string
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			t.Fatalf("unexpected error issue: %+v", iss)
		}
		warnPaths = append(warnPaths, iss.Path)
	}

	joined := strings.Join(warnPaths, " ")
	if !strings.Contains(joined, "sources.weather.api_key") {
		t.Errorf("expected api_key warning, got %v", warnPaths)
	}
	if !strings.Contains(joined, "sources.sales.dedup_keys") {
		t.Errorf("expected dedup_keys warning, got %v", warnPaths)
	}
}

// TestIssue_Error verifies the error rendering.
func TestIssue_Error(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "storage.kind", Message: "boom"}
	got := iss.Error()
	if !strings.Contains(got, "storage.kind") || !strings.Contains(got, "boom") {
		t.Fatalf("unexpected error string %q", got)
	}
}
