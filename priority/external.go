package priority

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/google/btree"

	"github.com/davidvella/levelq/compactor"
	"github.com/davidvella/levelq/loser"
	"github.com/davidvella/levelq/monitoring"
	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/spill/filestore"
	"github.com/davidvella/levelq/stats"
)

const btreeDegree = 32

// entry orders equal elements by insertion so the buffer never merges them.
type entry[T any] struct {
	value T
	seq   uint64
}

// External is a heap that keeps up to its memory budget of elements in an
// ordered buffer and spills the buffer as a sorted run whenever it overflows.
// Runs are merged on read through a heap of run cursors.
type External[T any] struct {
	lessF     func(a, b T) bool
	buffer    *btree.BTreeG[entry[T]]
	seq       uint64
	capacity  int
	runs      *Internal[*runCursor[T]]
	size      int
	maxRuns   int
	store     spill.Store
	ownsStore bool
	codec     spill.Codec[T]
	stats     *stats.Spill
	logger    *slog.Logger
}

// NewExternal returns a spilling heap. The buffer holds as many elements as
// fit in memoryBytes; capacity is only a hint.
func NewExternal[T any](memoryBytes int64, capacity int, less func(a, b T) bool, cfg *Config[T]) (*External[T], error) {
	if cfg == nil {
		cfg = &Config[T]{}
	}
	fits := MemoryFits(memoryBytes, cfg.elementSize())
	if fits < 1 {
		return nil, fmt.Errorf("%w: %d bytes cannot hold one element", ErrInsufficientMemory, memoryBytes)
	}

	q := &External[T]{
		lessF:    less,
		capacity: fits,
		maxRuns:  cfg.MaxRuns,
		store:    cfg.Store,
		codec:    cfg.Codec,
		stats:    cfg.Stats,
		logger:   monitoring.Component(cfg.Logger, "priority"),
	}
	q.buffer = btree.NewG(btreeDegree, func(a, b entry[T]) bool {
		if less(a.value, b.value) {
			return true
		}
		if less(b.value, a.value) {
			return false
		}
		return a.seq < b.seq
	})
	q.runs, _ = NewInternal(0, 0, func(a, b *runCursor[T]) bool {
		return less(a.head, b.head)
	}, nil)

	if q.maxRuns <= 0 {
		q.maxRuns = defaultMaxRuns
	}
	if q.codec == nil {
		q.codec = spill.GobCodec[T]{}
	}
	if q.stats == nil {
		q.stats = &stats.Spill{}
	}
	if q.store == nil {
		s, err := filestore.New("", nil)
		if err != nil {
			return nil, err
		}
		q.store, q.ownsStore = s, true
	}
	return q, nil
}

func (q *External[T]) Size() int    { return q.size }
func (q *External[T]) Empty() bool  { return q.size == 0 }
func (q *External[T]) HasTop() bool { return q.size > 0 }

// Runs returns the number of runs currently on disk.
func (q *External[T]) Runs() int { return q.runs.Size() }

func (q *External[T]) Push(v T) {
	q.buffer.ReplaceOrInsert(entry[T]{value: v, seq: q.seq})
	q.seq++
	q.size++
	if q.buffer.Len() > q.capacity {
		q.spill()
	}
}

func (q *External[T]) Top() T {
	v, _ := q.top()
	return v
}

func (q *External[T]) Peek() T { return q.Top() }

func (q *External[T]) Pop() {
	_, fromBuffer := q.top()
	q.size--
	if fromBuffer {
		q.buffer.DeleteMin()
		return
	}

	c := q.runs.Top()
	q.runs.Pop()
	ok, err := c.advance(q.codec)
	if err != nil {
		panic(fmt.Errorf("%w: read run: %w", ErrSpill, err))
	}
	if ok {
		q.runs.Push(c)
		return
	}
	if err := c.release(); err != nil {
		panic(fmt.Errorf("%w: release run: %w", ErrSpill, err))
	}
}

// Close removes every run. A store created by the queue is closed too.
func (q *External[T]) Close() error {
	var errs []error
	for q.runs.HasTop() {
		errs = append(errs, q.runs.Top().release())
		q.runs.Pop()
	}
	q.buffer.Clear(false)
	q.size = 0
	if q.ownsStore {
		errs = append(errs, q.store.Close())
	}
	return errors.Join(errs...)
}

// top returns the smallest element and whether it sits in the buffer.
func (q *External[T]) top() (T, bool) {
	b, inBuffer := q.buffer.Min()
	if !q.runs.HasTop() {
		if !inBuffer {
			panic("priority: top of empty queue")
		}
		return b.value, true
	}
	r := q.runs.Top().head
	if inBuffer && !q.lessF(r, b.value) {
		return b.value, true
	}
	return r, false
}

func (q *External[T]) spill() {
	w, err := q.store.Create()
	if err != nil {
		panic(fmt.Errorf("%w: create run: %w", ErrSpill, err))
	}

	n := q.buffer.Len()
	q.buffer.Ascend(func(e entry[T]) bool {
		err = q.append(w, e.value)
		return err == nil
	})
	if err != nil {
		panic(fmt.Errorf("%w: write run: %w", ErrSpill, err))
	}
	run, err := w.Finish()
	if err != nil {
		panic(fmt.Errorf("%w: finish run: %w", ErrSpill, err))
	}
	q.buffer.Clear(true)

	q.stats.Spills++
	q.stats.SpilledElements += uint64(n)
	q.logger.Debug("buffer spilled",
		"event_type", monitoring.EventSpill,
		"elements", n,
		"runs", q.runs.Size()+1)

	q.addRun(run)
	if q.runs.Size() > q.maxRuns {
		q.compact()
	}
}

func (q *External[T]) append(w spill.Writer, v T) error {
	rec, err := q.codec.Marshal(v)
	if err != nil {
		return err
	}
	return w.Append(rec)
}

func (q *External[T]) addRun(run spill.Run) {
	r, err := run.Open()
	if err != nil {
		panic(fmt.Errorf("%w: open run: %w", ErrSpill, err))
	}
	c := &runCursor[T]{run: run, reader: r}
	ok, err := c.advance(q.codec)
	if err != nil {
		panic(fmt.Errorf("%w: read run: %w", ErrSpill, err))
	}
	if !ok {
		if err := c.release(); err != nil {
			panic(fmt.Errorf("%w: release run: %w", ErrSpill, err))
		}
		return
	}
	q.runs.Push(c)
}

// compact merges every run into one.
func (q *External[T]) compact() {
	cursors := make([]*runCursor[T], 0, q.runs.Size())
	for q.runs.HasTop() {
		cursors = append(cursors, q.runs.Top())
		q.runs.Pop()
	}
	streams := make([]*cursorSeq[T], len(cursors))
	seqs := make([]loser.Sequence[T], len(cursors))
	for i, c := range cursors {
		streams[i] = &cursorSeq[T]{c: c, codec: q.codec}
		seqs[i] = streams[i]
	}

	w, err := q.store.Create()
	if err != nil {
		panic(fmt.Errorf("%w: create run: %w", ErrSpill, err))
	}
	n, err := compactor.Compact[T](compactor.SinkFunc[T](func(v T) error {
		return q.append(w, v)
	}), q.lessF, seqs...)
	for _, s := range streams {
		err = errors.Join(err, s.err, s.c.release())
	}
	if err != nil {
		panic(fmt.Errorf("%w: compaction: %w", ErrSpill, err))
	}
	run, err := w.Finish()
	if err != nil {
		panic(fmt.Errorf("%w: finish run: %w", ErrSpill, err))
	}

	q.stats.Compactions++
	q.logger.Debug("runs compacted",
		"event_type", monitoring.EventCompaction,
		"runs", len(cursors),
		"elements", n)

	q.addRun(run)
}

// runCursor holds the smallest unread element of a run.
type runCursor[T any] struct {
	run    spill.Run
	reader spill.Reader
	head   T
}

func (c *runCursor[T]) advance(codec spill.Codec[T]) (bool, error) {
	rec, err := c.reader.Next()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.head, err = codec.Unmarshal(rec)
	return err == nil, err
}

func (c *runCursor[T]) release() error {
	return errors.Join(c.reader.Close(), c.run.Remove())
}

// cursorSeq streams the remainder of a run, head first.
type cursorSeq[T any] struct {
	c     *runCursor[T]
	codec spill.Codec[T]
	err   error
}

func (s *cursorSeq[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			if !yield(s.c.head) {
				return
			}
			ok, err := s.c.advance(s.codec)
			if err != nil {
				s.err = err
				return
			}
			if !ok {
				return
			}
		}
	}
}
