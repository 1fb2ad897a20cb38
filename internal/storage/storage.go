// Package storage contains the storage-agnostic sink contract and the
// backend factory. Concrete backends live in subpackages and register
// themselves with the factory at init time; the binary selects one by the
// configured kind.
//
// The contract is deliberately narrow: the pipeline rebuilds every table in
// full on each run, so the only write primitive is "replace this table with
// these rows". Each ReplaceTable call commits independently; no transaction
// spans more than one table.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Column describes one destination column of a replaced table.
type Column struct {
	// Name is the column name, unquoted.
	Name string

	// SQLType is the column type in the backend's dialect (the backends
	// share the small TEXT/INTEGER/REAL/TIMESTAMP-ish subset used here).
	SQLType string
}

// Repository is the persistence sink: a reusable handle to one database.
type Repository interface {
	// ReplaceTable drops any prior table of the given name, recreates it
	// with the given columns, and inserts the rows, committing on success.
	ReplaceTable(ctx context.Context, name string, cols []Column, rows [][]any) error

	// Close releases the underlying connection(s).
	Close()
}

// OpenFunc constructs a backend Repository from a DSN.
type OpenFunc func(ctx context.Context, dsn string) (Repository, error)

var (
	mu      sync.RWMutex
	factory = map[string]OpenFunc{}
)

// Register installs a backend under kind. Backends call this from init();
// registering the same kind twice panics, as that is a wiring bug.
func Register(kind string, open OpenFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factory[kind]; dup {
		panic(fmt.Sprintf("storage: duplicate backend registration for %q", kind))
	}
	factory[kind] = open
}

// Open constructs the backend registered under kind.
func Open(ctx context.Context, kind, dsn string) (Repository, error) {
	mu.RLock()
	open, ok := factory[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %v)", kind, Kinds())
	}
	return open(ctx, dsn)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factory))
	for k := range factory {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
