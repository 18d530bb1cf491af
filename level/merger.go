package level

import (
	"fmt"
	"iter"

	"github.com/davidvella/levelq/loser"
)

// streamMemory is the bytes reserved per hooked source.
const streamMemory = 256

// MergerMemoryUsage returns the bytes a Merger over files sources reserves.
func MergerMemoryUsage(files int) int64 {
	return int64(files) * streamMemory
}

// Merger merges several level sources into one stream of distinct levels.
// Levels reported by more than one source are emitted once with their widths
// summed.
type Merger struct {
	less Comparator

	next func() (Info, bool)
	stop func()

	head    Info
	hasHead bool

	pending    Info
	hasPending bool

	last    Level
	hasLast bool
}

// NewMerger returns a Merger ordering levels by less.
func NewMerger(less Comparator) *Merger {
	return &Merger{less: less}
}

// Hook attaches sources and buffers the first level of each. Any previous
// hook is released. The sources may be discarded once Hook returns.
//
// The merge runs on a coroutine pulled through iter.Pull; call Close once the
// merger is no longer needed to release it.
func (m *Merger) Hook(sources ...Source) {
	m.Close()

	seqs := make([]loser.Sequence[Info], len(sources))
	for i, s := range sources {
		seqs[i] = s
	}
	tree := loser.New(seqs, func(a, b Info) bool { return m.less(a.Level, b.Level) })
	m.next, m.stop = iter.Pull(tree.All())
	m.hasHead, m.hasPending, m.hasLast = false, false, false
	m.fill()
}

// CanPull reports whether any source has levels left.
func (m *Merger) CanPull() bool { return m.hasHead }

// Peek returns the next level without consuming it.
func (m *Merger) Peek() Level { return m.PeekInfo().Level }

// PeekInfo returns the next level and its summed width without consuming it.
func (m *Merger) PeekInfo() Info {
	if !m.hasHead {
		panic("level: peek on exhausted merger")
	}
	return m.head
}

// Pull consumes the next level.
func (m *Merger) Pull() Level { return m.PullInfo().Level }

// PullInfo consumes the next level and returns it with its summed width.
func (m *Merger) PullInfo() Info {
	info := m.PeekInfo()
	m.last, m.hasLast = info.Level, true
	m.fill()
	return info
}

// Close releases the hooked sources.
func (m *Merger) Close() {
	if m.stop != nil {
		m.stop()
		m.stop, m.next = nil, nil
	}
	m.hasHead, m.hasPending = false, false
}

func (m *Merger) fill() {
	m.hasHead = false
	if m.next == nil {
		return
	}
	if !m.hasPending {
		m.pending, m.hasPending = m.next()
	}
	if !m.hasPending {
		return
	}
	m.head, m.hasHead, m.hasPending = m.pending, true, false
	if m.hasLast && !m.less(m.last, m.head.Level) {
		panic(fmt.Sprintf("level: source out of order, level %d after %d", m.head.Level, m.last))
	}
	for {
		v, ok := m.next()
		if !ok {
			return
		}
		if v.Level != m.head.Level {
			m.pending, m.hasPending = v, true
			return
		}
		m.head.Width += v.Width
	}
}
