package priority

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/stats"
)

var (
	ErrInsufficientMemory = errors.New("priority: insufficient memory")
	ErrSpill              = errors.New("priority: spill failed")
)

const defaultMaxRuns = 16

// Queue is a heap over elements ordered by a less function. Top and Pop panic
// on an empty queue.
type Queue[T any] interface {
	Push(v T)
	Pop()
	Top() T
	Peek() T
	HasTop() bool
	Empty() bool
	Size() int
	// Close releases every resource held by the queue.
	Close() error
}

// Mode selects the backend of a Queue.
type Mode int

const (
	// ModeInternal keeps every element in RAM.
	ModeInternal Mode = iota
	// ModeExternal spills sorted runs to a spill.Store once the memory budget
	// is exhausted.
	ModeExternal
)

func (m Mode) String() string {
	switch m {
	case ModeInternal:
		return "internal"
	case ModeExternal:
		return "external"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the String form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "internal":
		return ModeInternal, nil
	case "external":
		return ModeExternal, nil
	}
	return 0, fmt.Errorf("priority: unknown mode %q", s)
}

// Config tunes a Queue. A nil Config uses the defaults of every field.
type Config[T any] struct {
	// ElementSize is the number of bytes charged per element against the
	// memory budget. Zero uses the in-memory size of T.
	ElementSize int
	// Store receives the runs of an external queue. Nil creates a private
	// filestore in a temporary directory.
	Store spill.Store
	// Codec encodes spilled elements. Nil uses spill.GobCodec.
	Codec spill.Codec[T]
	// MaxRuns is the number of runs an external queue holds before merging
	// them into one. Zero means 16.
	MaxRuns int
	Stats   *stats.Spill
	Logger  *slog.Logger
}

func (c *Config[T]) elementSize() int64 {
	if c != nil && c.ElementSize > 0 {
		return int64(c.ElementSize)
	}
	return ElementSize[T]()
}

// ElementSize returns the in-memory size of T, at least 1.
func ElementSize[T any]() int64 {
	var zero T
	if s := int64(unsafe.Sizeof(zero)); s > 0 {
		return s
	}
	return 1
}

// MemoryUsage returns the bytes needed to hold n elements of elemSize bytes.
func MemoryUsage(n int, elemSize int64) int64 {
	return int64(n) * elemSize
}

// MemoryFits returns how many elements of elemSize bytes fit in memoryBytes.
func MemoryFits(memoryBytes, elemSize int64) int {
	if memoryBytes <= 0 || elemSize <= 0 {
		return 0
	}
	return int(memoryBytes / elemSize)
}

// New returns a Queue backed by mode.
func New[T any](mode Mode, memoryBytes int64, capacity int, less func(a, b T) bool, cfg *Config[T]) (Queue[T], error) {
	switch mode {
	case ModeInternal:
		return NewInternal(memoryBytes, capacity, less, cfg)
	case ModeExternal:
		return NewExternal(memoryBytes, capacity, less, cfg)
	}
	return nil, fmt.Errorf("priority: unknown mode %v", mode)
}
