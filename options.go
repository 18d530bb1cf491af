package levelq

import (
	"log/slog"

	"github.com/davidvella/levelq/level"
	"github.com/davidvella/levelq/priority"
	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/stats"
)

// InitLevel selects how a Queue starts.
type InitLevel int

const (
	// InitLazy starts without a current level and assigns buckets on the
	// first SetupNextLevel.
	InitLazy InitLevel = iota
	// InitEager makes the first level current at construction and assigns the
	// buckets to the levels after it.
	InitEager
)

// options defines all configuration options for the queue.
type options struct {
	lookAhead   int
	mode        priority.Mode
	initLevel   InitLevel
	levelLess   level.Comparator
	stats       *stats.LevelizedQueue
	logger      *slog.Logger
	store       spill.Store
	codec       any
	elementSize int
	maxRuns     int
}

// Option is a function that configures the queue options.
type Option func(*options)

// WithLookAhead sets the number of buckets.
func WithLookAhead(n int) Option {
	return func(o *options) {
		o.lookAhead = max(n, 0)
	}
}

// WithMode sets the backend of buckets and overflow.
func WithMode(m priority.Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithInitLevel sets how the first level is established.
func WithInitLevel(l InitLevel) Option {
	return func(o *options) {
		o.initLevel = l
	}
}

// WithLevelComparator sets the order in which levels are visited. The level
// sources must be sorted the same way.
func WithLevelComparator(less level.Comparator) Option {
	return func(o *options) {
		o.levelLess = less
	}
}

// WithStats sets the statistics sink.
func WithStats(s *stats.LevelizedQueue) Option {
	return func(o *options) {
		o.stats = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSpillStore sets where an external queue writes its runs. The caller
// keeps ownership of s.
func WithSpillStore(s spill.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCodec sets how an external queue encodes elements of type T.
func WithCodec[T Element](c spill.Codec[T]) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithElementSize sets the bytes charged per element against the memory
// budget.
func WithElementSize(n int) Option {
	return func(o *options) {
		o.elementSize = n
	}
}

// WithMaxRuns sets how many runs an external queue keeps before compacting.
func WithMaxRuns(n int) Option {
	return func(o *options) {
		o.maxRuns = n
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		lookAhead: 1,
		mode:      priority.ModeInternal,
		initLevel: InitEager,
		levelLess: level.Ascending,
	}
}
