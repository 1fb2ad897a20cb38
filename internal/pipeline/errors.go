package pipeline

import "fmt"

// Kind classifies a stage failure.
type Kind int

const (
	// KindNetwork covers failed fetches from the user directory or weather API.
	KindNetwork Kind = iota
	// KindDataSource covers a missing, unreadable, or malformed sales feed.
	KindDataSource
	// KindSchema covers an aggregation definition referencing a column the
	// enriched table does not have.
	KindSchema
	// KindSink covers persistence and chart-save failures.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindDataSource:
		return "data source failure"
	case KindSchema:
		return "schema mismatch"
	case KindSink:
		return "sink failure"
	default:
		return "failure"
	}
}

// StageError tags an underlying error with the failing stage and, for
// aggregation failures, the failing definition. The run aborts on the first
// StageError; there is no partial-success mode.
type StageError struct {
	Stage      string
	Definition string
	Kind       Kind
	Err        error
}

func (e *StageError) Error() string {
	if e.Definition != "" {
		return fmt.Sprintf("stage %s (definition %s): %s: %v", e.Stage, e.Definition, e.Kind, e.Err)
	}
	return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
