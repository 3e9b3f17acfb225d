// Package store persists subprocess session markers: the identifier a
// stateless command-line backend reports so that the next process spawned
// for the same spec directory can resume its context.
//
// Three implementations are provided. [FileStore] writes a plain-text marker
// file inside the spec directory, [SQLiteStore] keeps every spec directory in
// one database, and [MemoryStore] is for tests.
package store

import (
	"context"
	"errors"
)

// ErrNoSpecDir is returned by Put when the key is empty.
var ErrNoSpecDir = errors.New("store: spec directory is required")

// SessionStore maps a spec directory to the latest session identifier.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Get returns the stored identifier. A missing entry is ok == false
	// with a nil error.
	Get(ctx context.Context, specDir string) (id string, ok bool, err error)
	// Put records id as the latest identifier for specDir.
	Put(ctx context.Context, specDir, id string) error
}
