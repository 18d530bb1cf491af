// Adapted from the talk code at https://github.com/bboreham/go-loser/blob/iter/tree.go.
// Thank you Bryan

package loser

import (
	"iter"
)

// Sequence is a sorted stream of values that can take part in a merge.
type Sequence[E any] interface {
	All() iter.Seq[E]
}

// New builds a tree over sequences ordered by less. Exhausted sequences are
// tracked per leaf, so no sentinel value is needed and any E may appear in the
// input.
func New[E any](sequences []Sequence[E], less func(E, E) bool) *Tree[E] {
	return &Tree[E]{
		nodes:     make([]node[E], len(sequences)*2),
		sequences: sequences,
		less:      less,
	}
}

// A loser tree is a binary tree laid out such that nodes N and N+1 have parent N/2.
// We store M leaf nodes in positions M...2M-1, and M-1 internal nodes in positions 1..M-1.
// Node 0 is a special node, holding the leaf that currently wins.
type Tree[E any] struct {
	nodes     []node[E]
	sequences []Sequence[E]
	less      func(E, E) bool
}

type node[E any] struct {
	index int              // Leaf that lost here; for node 0 the overall winner.
	value E                // Head of the sequence, leaves only.
	done  bool             // Sequence exhausted, leaves only.
	next  func() (E, bool) // Leaves only.
}

func (t *Tree[E]) moveNext(index int) {
	n := &t.nodes[index]
	v, ok := n.next()
	n.value, n.done = v, !ok
}

// All merges the sequences. Equal values are emitted in sequence order.
func (t *Tree[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		if len(t.nodes) == 0 {
			return
		}
		m := len(t.sequences)
		for i, s := range t.sequences {
			next, stop := iter.Pull(s.All())
			t.nodes[i+m].next = next
			//nolint:gocritic // is not a leak.
			defer stop()
			t.moveNext(i + m)
		}
		t.nodes[0].index = t.playGame(1)
		for {
			w := t.nodes[0].index
			if t.nodes[w].done || !yield(t.nodes[w].value) {
				return
			}
			t.moveNext(w)
			t.replayGames(w)
		}
	}
}

// beats reports whether leaf a wins against leaf b.
func (t *Tree[E]) beats(a, b int) bool {
	la, lb := &t.nodes[a], &t.nodes[b]
	switch {
	case la.done:
		return false
	case lb.done:
		return true
	case t.less(la.value, lb.value):
		return true
	case t.less(lb.value, la.value):
		return false
	}
	return a < b
}

// Find the winner at position pos; if it is a non-leaf node, store the loser.
func (t *Tree[E]) playGame(pos int) int {
	if pos >= len(t.nodes)/2 {
		return pos
	}
	left := t.playGame(pos * 2)
	right := t.playGame(pos*2 + 1)
	if t.beats(left, right) {
		t.nodes[pos].index = right
		return left
	}
	t.nodes[pos].index = left
	return right
}

// Starting at pos, whose value just changed, re-consider all games up to the root.
func (t *Tree[E]) replayGames(pos int) {
	winner := pos
	for n := parent(pos); n != 0; n = parent(n) {
		node := &t.nodes[n]
		if t.beats(node.index, winner) {
			node.index, winner = winner, node.index
		}
	}
	t.nodes[0].index = winner
}

func parent(i int) int { return i >> 1 }
