package spill

import (
	"errors"
)

var ErrClosed = errors.New("spill: store closed")

// Store creates sorted runs for an external priority queue. A Store is used
// from a single goroutine.
type Store interface {
	// Create starts a new, empty run.
	Create() (Writer, error)
	// Close removes every run still held by the store.
	Close() error
}

// Writer appends records to a run under construction.
type Writer interface {
	Append(rec []byte) error
	// Finish seals the run. The Writer must not be used afterwards.
	Finish() (Run, error)
}

// Run is a sealed sequence of records.
type Run interface {
	Len() int64
	// Open returns a Reader positioned at the first record.
	Open() (Reader, error)
	// Remove deletes the run from its store.
	Remove() error
}

// Reader reads the records of a run in the order they were appended.
type Reader interface {
	// Next returns the next record or io.EOF after the last one. The returned
	// slice is owned by the caller.
	Next() ([]byte, error)
	Close() error
}
