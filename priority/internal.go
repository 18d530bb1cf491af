package priority

import (
	"fmt"
)

// maxPrealloc caps the capacity hint honoured up front.
const maxPrealloc = 1 << 16

// Internal is a binary heap kept entirely in memory.
type Internal[T any] struct {
	items []T
	lessF func(a, b T) bool
}

// NewInternal returns an in-memory heap for up to capacity elements. It
// fails when capacity elements do not fit in memoryBytes.
func NewInternal[T any](memoryBytes int64, capacity int, less func(a, b T) bool, cfg *Config[T]) (*Internal[T], error) {
	if fits := MemoryFits(memoryBytes, cfg.elementSize()); capacity > fits {
		return nil, fmt.Errorf("%w: %d elements requested, %d fit in %d bytes",
			ErrInsufficientMemory, capacity, fits, memoryBytes)
	}
	return &Internal[T]{
		items: make([]T, 0, min(max(capacity, 0), maxPrealloc)),
		lessF: less,
	}, nil
}

func (pq *Internal[T]) Size() int    { return len(pq.items) }
func (pq *Internal[T]) Empty() bool  { return len(pq.items) == 0 }
func (pq *Internal[T]) HasTop() bool { return len(pq.items) > 0 }

func (pq *Internal[T]) Push(v T) {
	pq.items = append(pq.items, v)
	pq.up(len(pq.items) - 1)
}

func (pq *Internal[T]) Top() T {
	if len(pq.items) == 0 {
		panic("priority: top of empty queue")
	}
	return pq.items[0]
}

func (pq *Internal[T]) Peek() T { return pq.Top() }

func (pq *Internal[T]) Pop() {
	n := len(pq.items) - 1
	if n < 0 {
		panic("priority: pop of empty queue")
	}
	pq.swap(0, n)
	var zero T
	pq.items[n] = zero
	pq.items = pq.items[:n]
	pq.down(0)
}

func (pq *Internal[T]) Close() error { return nil }

func (pq *Internal[T]) swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

func (pq *Internal[T]) less(i, j int) bool {
	return pq.lessF(pq.items[i], pq.items[j])
}

func (pq *Internal[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !pq.less(i, parent) {
			break
		}
		pq.swap(i, parent)
		i = parent
	}
}

func (pq *Internal[T]) down(i int) {
	n := len(pq.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && pq.less(left, smallest) {
			smallest = left
		}
		if right < n && pq.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}

		pq.swap(i, smallest)
		i = smallest
	}
}
