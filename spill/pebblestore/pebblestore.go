package pebblestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/google/uuid"

	"github.com/davidvella/levelq/spill"
)

const (
	keyPrefix       = "run/"
	defaultBatchLen = 1024
)

// Options configures a Store.
type Options struct {
	// Dir holds the database. Empty creates a temporary directory that Close
	// removes.
	Dir string
	// InMemory keeps the database in memory. Dir is then only a name.
	InMemory bool
	// BatchLen is the number of records committed per write batch.
	BatchLen int
	// CacheSize is the block cache size in bytes.
	CacheSize int64
}

// Store keeps runs as key ranges run/<uuid>/<seq> in a pebble database.
type Store struct {
	db       *pebble.DB
	dir      string
	owned    bool
	batchLen int
	runs     map[string]struct{}
	closed   bool
}

// Open opens or creates the database described by opts.
func Open(opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}

	dir, owned := opts.Dir, false
	pebbleOpts := &pebble.Options{}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		pebbleOpts.Cache = cache
	}
	switch {
	case opts.InMemory:
		pebbleOpts.FS = vfs.NewMem()
		if dir == "" {
			dir = "spill"
		}
	case dir == "":
		d, err := os.MkdirTemp("", "levelq-pebble-*")
		if err != nil {
			return nil, fmt.Errorf("pebblestore: create temp dir: %w", err)
		}
		dir, owned = d, true
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("pebblestore: open: %w", err)
	}

	batchLen := opts.BatchLen
	if batchLen <= 0 {
		batchLen = defaultBatchLen
	}

	return &Store{
		db:       db,
		dir:      dir,
		owned:    owned,
		batchLen: batchLen,
		runs:     make(map[string]struct{}),
	}, nil
}

// Runs returns the number of runs not yet removed.
func (s *Store) Runs() int { return len(s.runs) }

func (s *Store) Create() (spill.Writer, error) {
	if s.closed {
		return nil, spill.ErrClosed
	}
	id := uuid.NewString()
	s.runs[id] = struct{}{}
	return &writer{store: s, id: id, batch: s.db.NewBatch()}, nil
}

// Close deletes the remaining runs and closes the database.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for id := range s.runs {
		lower, upper := bounds(id)
		errs = append(errs, s.db.DeleteRange(lower, upper, pebble.NoSync))
	}
	clear(s.runs)
	errs = append(errs, s.db.Close())
	if s.owned {
		errs = append(errs, os.RemoveAll(s.dir))
	}
	return errors.Join(errs...)
}

// bounds returns the key range [lower, upper) of run id.
func bounds(id string) (lower, upper []byte) {
	lower = []byte(keyPrefix + id + "/")
	// '0' sorts directly after '/'.
	upper = []byte(keyPrefix + id + "0")
	return lower, upper
}

func key(id string, seq uint64) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(id)+1+8)
	k = append(k, keyPrefix...)
	k = append(k, id...)
	k = append(k, '/')
	return binary.BigEndian.AppendUint64(k, seq)
}

type writer struct {
	store *Store
	id    string
	batch *pebble.Batch
	n     uint64
}

func (w *writer) Append(rec []byte) error {
	if err := w.batch.Set(key(w.id, w.n), rec, nil); err != nil {
		return fmt.Errorf("pebblestore: set: %w", err)
	}
	w.n++
	if int(w.batch.Count()) >= w.store.batchLen {
		if err := w.batch.Commit(pebble.NoSync); err != nil {
			return fmt.Errorf("pebblestore: commit: %w", err)
		}
		if err := w.batch.Close(); err != nil {
			return err
		}
		w.batch = w.store.db.NewBatch()
	}
	return nil
}

func (w *writer) Finish() (spill.Run, error) {
	defer w.batch.Close()
	if err := w.batch.Commit(pebble.NoSync); err != nil {
		return nil, fmt.Errorf("pebblestore: commit: %w", err)
	}
	return &run{store: w.store, id: w.id, n: int64(w.n)}, nil
}

type run struct {
	store *Store
	id    string
	n     int64
}

func (r *run) Len() int64 { return r.n }

func (r *run) Open() (spill.Reader, error) {
	lower, upper := bounds(r.id)
	it, err := r.store.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("pebblestore: iterator: %w", err)
	}
	return &reader{it: it}, nil
}

func (r *run) Remove() error {
	delete(r.store.runs, r.id)
	lower, upper := bounds(r.id)
	if err := r.store.db.DeleteRange(lower, upper, pebble.NoSync); err != nil {
		return fmt.Errorf("pebblestore: remove run: %w", err)
	}
	return nil
}

type reader struct {
	it      *pebble.Iterator
	started bool
}

func (r *reader) Next() ([]byte, error) {
	var ok bool
	if !r.started {
		ok, r.started = r.it.First(), true
	} else {
		ok = r.it.Next()
	}
	if !ok {
		if err := r.it.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return append([]byte(nil), r.it.Value()...), nil
}

func (r *reader) Close() error { return r.it.Close() }
