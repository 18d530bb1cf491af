package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/davidvella/levelq/runfile"
	"github.com/davidvella/levelq/spill"
)

const runExt = ".lpq"

// Store keeps each run in its own file.
type Store struct {
	dir    string
	owned  bool
	runs   map[string]struct{}
	opts   *runfile.Options
	closed bool
}

// New returns a Store writing runs into dir. An empty dir creates a private
// temporary directory that Close removes.
func New(dir string, opts *runfile.Options) (*Store, error) {
	owned := false
	if dir == "" {
		d, err := os.MkdirTemp("", "levelq-spill-*")
		if err != nil {
			return nil, fmt.Errorf("filestore: create temp dir: %w", err)
		}
		dir, owned = d, true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}

	return &Store{
		dir:   dir,
		owned: owned,
		runs:  make(map[string]struct{}),
		opts:  opts,
	}, nil
}

// Dir returns the directory holding the runs.
func (s *Store) Dir() string { return s.dir }

// Runs returns the number of runs not yet removed.
func (s *Store) Runs() int { return len(s.runs) }

func (s *Store) Create() (spill.Writer, error) {
	if s.closed {
		return nil, spill.ErrClosed
	}

	path := filepath.Join(s.dir, "run-"+uuid.NewString()+runExt)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: create run: %w", err)
	}

	w, err := runfile.OpenWriter(f, s.opts)
	if err != nil {
		return nil, errors.Join(err, f.Close(), os.Remove(path))
	}

	s.runs[path] = struct{}{}
	return &writer{store: s, path: path, f: f, w: w}, nil
}

// Close removes all remaining runs, and the directory when the Store created
// it.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for path := range s.runs {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	clear(s.runs)
	if s.owned {
		errs = append(errs, os.RemoveAll(s.dir))
	}
	return errors.Join(errs...)
}

type writer struct {
	store *Store
	path  string
	f     *os.File
	w     *runfile.Writer
}

func (w *writer) Append(rec []byte) error {
	return w.w.Add(rec)
}

func (w *writer) Finish() (spill.Run, error) {
	if err := w.w.Close(); err != nil {
		return nil, errors.Join(err, w.f.Close())
	}
	if err := w.f.Close(); err != nil {
		return nil, fmt.Errorf("filestore: close run: %w", err)
	}
	return &run{store: w.store, path: w.path, n: w.w.Count()}, nil
}

type run struct {
	store *Store
	path  string
	n     int64
}

func (r *run) Len() int64 { return r.n }

func (r *run) Open() (spill.Reader, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("filestore: open run: %w", err)
	}
	rr, err := runfile.OpenReader(f, r.store.opts)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	return &reader{f: f, r: rr}, nil
}

func (r *run) Remove() error {
	delete(r.store.runs, r.path)
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filestore: remove run: %w", err)
	}
	return nil
}

type reader struct {
	f *os.File
	r *runfile.Reader
}

func (r *reader) Next() ([]byte, error) { return r.r.Next() }

func (r *reader) Close() error {
	return errors.Join(r.r.Close(), r.f.Close())
}
