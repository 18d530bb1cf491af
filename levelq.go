package levelq

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/davidvella/levelq/level"
	"github.com/davidvella/levelq/monitoring"
	"github.com/davidvella/levelq/priority"
	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/spill/filestore"
	"github.com/davidvella/levelq/stats"
)

var (
	// ErrInsufficientMemory is returned by New when the memory budget cannot
	// hold the merger, the buckets and the overflow queue.
	ErrInsufficientMemory = priority.ErrInsufficientMemory
	ErrCodecType          = errors.New("levelq: codec does not match element type")
)

// minOverflowMemory is the smallest share an external overflow queue gets.
const minOverflowMemory = 8 * 1024

// Element is anything that can be queued: it knows the level it belongs to.
type Element interface {
	Level() level.Level
}

type bucket[T any] struct {
	level    level.Level
	assigned bool
	labelled bool
	queue    priority.Queue[T]
}

// Queue is a levelized priority queue. Elements are pushed for any level that
// is still to come and pulled level by level, in the order given by the level
// comparator, and within a level in the order given by less.
//
// The next LOOK_AHEAD levels each own a bucket; elements for later levels go
// to a single overflow queue ordered by level first. Reads of the current
// level merge its bucket with the overflow entries on that level, so it does
// not matter where an element was routed.
//
// A Queue is not safe for concurrent use.
type Queue[T Element] struct {
	less      func(a, b T) bool
	levelLess level.Comparator

	merger   *level.Merger
	buckets  []bucket[T]
	front    int
	overflow priority.Queue[T]

	current    level.Level
	hasCurrent bool

	size      int
	maxSize   int
	actualMax int

	stats     *stats.LevelizedQueue
	logger    *slog.Logger
	store     spill.Store
	ownsStore bool
	closed    bool
}

// New returns a Queue over the levels reported by sources. memoryBytes bounds
// the memory of the merger, the buckets and the overflow queue together.
// maxSize is the expected maximum number of queued elements.
//
// The caller must Close the Queue: it holds the level merger's coroutine and,
// in external mode, spilled runs on disk. Dropping it unclosed leaks both.
func New[T Element](sources []level.Source, memoryBytes int64, maxSize int, less func(a, b T) bool, opts ...Option) (*Queue[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	bucketMem, overflowMem, err := splitMemory(memoryBytes, len(sources), o.lookAhead, o.mode)
	if err != nil {
		return nil, err
	}

	q := &Queue[T]{
		less:      less,
		levelLess: o.levelLess,
		merger:    level.NewMerger(o.levelLess),
		buckets:   make([]bucket[T], o.lookAhead),
		front:     -1,
		maxSize:   maxSize,
		stats:     o.stats,
		logger:    monitoring.Component(o.logger, "levelq"),
		store:     o.store,
	}
	if q.stats == nil {
		q.stats = &stats.LevelizedQueue{}
	}

	cfg := &priority.Config[T]{
		ElementSize: o.elementSize,
		MaxRuns:     o.maxRuns,
		Stats:       &q.stats.Spill,
		Logger:      o.logger,
	}
	if o.codec != nil {
		c, ok := o.codec.(spill.Codec[T])
		if !ok {
			return nil, ErrCodecType
		}
		cfg.Codec = c
	}
	if o.mode == priority.ModeExternal {
		if q.store == nil {
			s, err := filestore.New("", nil)
			if err != nil {
				return nil, err
			}
			q.store, q.ownsStore = s, true
		}
		cfg.Store = q.store
	}

	for i := range q.buckets {
		pq, err := priority.New(o.mode, bucketMem, maxSize, less, cfg)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("levelq: bucket %d: %w", i, err), q.Close())
		}
		q.buckets[i].queue = pq
	}
	q.overflow, err = priority.New(o.mode, overflowMem, maxSize, q.lessOverflow, cfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("levelq: overflow: %w", err), q.Close())
	}

	q.merger.Hook(sources...)
	if o.initLevel == InitEager && q.merger.CanPull() {
		q.current, q.hasCurrent = q.merger.Pull(), true
		q.relabel()
	}

	q.logger.Debug("queue created",
		"event_type", monitoring.EventCreate,
		"look_ahead", o.lookAhead,
		"mode", o.mode.String(),
		"files", len(sources),
		"bucket_memory", bucketMem,
		"overflow_memory", overflowMem)

	return q, nil
}

func splitMemory(total int64, files, lookAhead int, mode priority.Mode) (bucketMem, overflowMem int64, err error) {
	avail := total - level.MergerMemoryUsage(files)
	if avail <= 0 {
		return 0, 0, fmt.Errorf("%w: %d bytes do not cover merging %d level files",
			ErrInsufficientMemory, total, files)
	}

	structures := int64(lookAhead + 1)
	if mode == priority.ModeInternal {
		share := avail / structures
		return share, share, nil
	}

	overflowMem = min(max(minOverflowMemory, avail/(4*structures+1)), avail)
	if lookAhead == 0 {
		return 0, avail, nil
	}
	return (avail - overflowMem) / int64(lookAhead), overflowMem, nil
}

func (q *Queue[T]) lessOverflow(a, b T) bool {
	la, lb := a.Level(), b.Level()
	if la != lb {
		return q.levelLess(la, lb)
	}
	return q.less(a, b)
}

// Size returns the number of queued elements.
func (q *Queue[T]) Size() int { return q.size }

// Empty reports whether no element is queued.
func (q *Queue[T]) Empty() bool { return q.size == 0 }

// CanPush reports whether any level can still receive elements.
func (q *Queue[T]) CanPush() bool { return q.hasCurrent || q.HasNextLevel() }

// HasCurrentLevel reports whether a level is being processed.
func (q *Queue[T]) HasCurrentLevel() bool { return q.hasCurrent }

// CurrentLevel returns the level being processed.
func (q *Queue[T]) CurrentLevel() level.Level {
	if !q.hasCurrent {
		panic("levelq: no current level")
	}
	return q.current
}

// EmptyLevel reports whether the current level has no elements left.
func (q *Queue[T]) EmptyLevel() bool { return q.hasCurrent && !q.CanPull() }

// CanPull reports whether the current level has elements left.
func (q *Queue[T]) CanPull() bool {
	_, _, ok := q.head()
	return ok
}

// HasNextLevel reports whether there is a level after the current one: a level
// reported by the sources or a later level that received elements.
func (q *Queue[T]) HasNextLevel() bool {
	_, ok := q.nextLevel()
	return ok
}

// NextLevel returns the level SetupNextLevel advances to.
func (q *Queue[T]) NextLevel() level.Level {
	next, ok := q.nextLevel()
	if !ok {
		panic("levelq: no next level")
	}
	return next
}

// Push queues e for its level. The level must not have been passed, and must
// be the current level or a level reported by the sources.
func (q *Queue[T]) Push(e T) {
	l := e.Level()
	if q.hasCurrent && q.levelLess(l, q.current) {
		panic(fmt.Sprintf("levelq: push for level %d, already past it at level %d", l, q.current))
	}

	if i := q.bucketOf(l); i >= 0 {
		q.buckets[i].queue.Push(e)
		q.stats.PushBucket++
	} else {
		if !(q.hasCurrent && l == q.current) && (!q.merger.CanPull() || q.levelLess(l, q.merger.Peek())) {
			panic(fmt.Sprintf("levelq: push for level %d, which is not an upcoming level", l))
		}
		q.overflow.Push(e)
		q.stats.PushOverflow++
	}

	q.size++
	q.actualMax = max(q.actualMax, q.size)
}

// Top returns the smallest element of the current level.
func (q *Queue[T]) Top() T {
	v, _, ok := q.head()
	if !ok {
		panic("levelq: top of empty level")
	}
	return v
}

// Peek is an alias of Top.
func (q *Queue[T]) Peek() T { return q.Top() }

// Pull removes and returns the smallest element of the current level.
func (q *Queue[T]) Pull() T {
	v, fromBucket, ok := q.head()
	if !ok {
		panic("levelq: pull from empty level")
	}
	if fromBucket {
		q.buckets[q.front].queue.Pop()
	} else {
		q.overflow.Pop()
	}
	q.size--
	return v
}

// Pop removes the smallest element of the current level.
func (q *Queue[T]) Pop() { q.Pull() }

// SetupNextLevel makes the next level current. The current level must be
// drained.
func (q *Queue[T]) SetupNextLevel() {
	q.mustAdvance()
	q.advanceTo(q.NextLevel())
}

// SetupNextLevelUntil advances over levels without elements, but not past
// stop. It does nothing if the next level is not before stop. Landing on stop
// without elements leaves an empty current level.
func (q *Queue[T]) SetupNextLevelUntil(stop level.Level) {
	q.mustAdvance()
	if !q.levelLess(q.NextLevel(), stop) {
		return
	}

	target := stop
	if q.overflow.HasTop() {
		if l := q.overflow.Top().Level(); q.levelLess(l, target) {
			target = l
		}
	}
	for i := range q.buckets {
		b := &q.buckets[i]
		if b.assigned && i != q.front && !b.queue.Empty() && q.levelLess(b.level, target) {
			target = b.level
		}
	}
	q.advanceTo(target)
}

// Stats returns a copy of the statistics gathered so far.
func (q *Queue[T]) Stats() stats.LevelizedQueue { return *q.stats }

// Close releases the level merger, the buckets, the overflow queue and their
// spilled runs.
func (q *Queue[T]) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	q.merger.Close()

	var errs []error
	for i := range q.buckets {
		if pq := q.buckets[i].queue; pq != nil {
			errs = append(errs, pq.Close())
		}
	}
	if q.overflow != nil {
		errs = append(errs, q.overflow.Close())
	}
	if q.ownsStore {
		errs = append(errs, q.store.Close())
	}

	q.stats.SumPredictedMaxSize += uint64(max(q.maxSize, 0))
	q.stats.SumActualMaxSize += uint64(q.actualMax)
	q.stats.Destructors++
	q.logger.Debug("queue closed",
		"event_type", monitoring.EventClose,
		"max_size", q.maxSize,
		"actual_max_size", q.actualMax)

	return errors.Join(errs...)
}

func (q *Queue[T]) mustAdvance() {
	if q.CanPull() {
		panic(fmt.Sprintf("levelq: level %d still has elements", q.current))
	}
	if !q.HasNextLevel() {
		panic("levelq: no next level")
	}
}

// head returns the smallest element of the current level and whether it is in
// the current bucket.
func (q *Queue[T]) head() (v T, fromBucket, ok bool) {
	if !q.hasCurrent {
		return v, false, false
	}

	var b, o T
	hasB := q.front >= 0 && q.buckets[q.front].queue.HasTop()
	if hasB {
		b = q.buckets[q.front].queue.Top()
	}
	hasO := false
	if q.overflow.HasTop() {
		o = q.overflow.Top()
		hasO = o.Level() == q.current
	}

	switch {
	case hasB && hasO:
		if q.less(o, b) {
			return o, false, true
		}
		return b, true, true
	case hasB:
		return b, true, true
	case hasO:
		return o, false, true
	}
	return v, false, false
}

func (q *Queue[T]) bucketOf(l level.Level) int {
	for i := range q.buckets {
		if q.buckets[i].assigned && q.buckets[i].level == l {
			return i
		}
	}
	return -1
}

func (q *Queue[T]) nextLevel() (level.Level, bool) {
	var (
		next level.Level
		ok   bool
	)
	for i := range q.buckets {
		b := &q.buckets[i]
		if !b.assigned || i == q.front {
			continue
		}
		if !ok || q.levelLess(b.level, next) {
			next, ok = b.level, true
		}
	}
	if q.merger.CanPull() {
		if m := q.merger.Peek(); !ok || q.levelLess(m, next) {
			next, ok = m, true
		}
	}
	// Elements may be pushed for levels the sources never report.
	if q.overflow.HasTop() {
		l := q.overflow.Top().Level()
		if (!q.hasCurrent || q.levelLess(q.current, l)) && (!ok || q.levelLess(l, next)) {
			next, ok = l, true
		}
	}
	return next, ok
}

// advanceTo makes target the current level. Every level before target must
// be empty.
func (q *Queue[T]) advanceTo(target level.Level) {
	if q.front >= 0 {
		q.retire(q.front)
		q.front = -1
	}

	skipped := 0
	for i := range q.buckets {
		b := &q.buckets[i]
		if !b.assigned {
			continue
		}
		switch {
		case b.level == target:
			q.front = i
		case q.levelLess(b.level, target):
			q.retire(i)
			skipped++
		}
	}
	for q.merger.CanPull() && !q.levelLess(target, q.merger.Peek()) {
		if q.merger.Pull() != target {
			skipped++
		}
	}

	q.current, q.hasCurrent = target, true
	if skipped > 0 {
		q.stats.SkippedLevels += uint64(skipped)
		q.logger.Debug("levels skipped",
			"event_type", monitoring.EventSkip,
			"count", skipped,
			"level", target)
	}
	q.relabel()
}

// retire frees slot i. Its level is over, so it must hold nothing.
func (q *Queue[T]) retire(i int) {
	b := &q.buckets[i]
	if !b.queue.Empty() {
		panic(fmt.Sprintf("levelq: bucket for level %d retired with %d elements", b.level, b.queue.Size()))
	}
	b.assigned = false
}

// relabel assigns every free slot to the next level of the merger.
func (q *Queue[T]) relabel() {
	for i := range q.buckets {
		if !q.merger.CanPull() {
			return
		}
		b := &q.buckets[i]
		if b.assigned {
			continue
		}
		if !b.queue.Empty() {
			panic(fmt.Sprintf("levelq: relabelling bucket %d that still holds %d elements", i, b.queue.Size()))
		}
		b.level, b.assigned = q.merger.Pull(), true
		if b.labelled {
			q.stats.Relabels++
			q.logger.Debug("bucket relabelled",
				"event_type", monitoring.EventRelabel,
				"slot", i,
				"level", b.level)
		}
		b.labelled = true
	}
}
