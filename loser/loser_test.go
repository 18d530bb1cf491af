package loser_test

import (
	"iter"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davidvella/levelq/loser"
)

type List[E any] struct {
	list []E
}

func NewList[E any](list ...E) *List[E] {
	return &List[E]{list: list}
}

func (it *List[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, i := range it.list {
			if !yield(i) {
				return
			}
		}
	}
}

func collect[E any](s loser.Sequence[E]) []E {
	out := make([]E, 0)
	for v := range s.All() {
		out = append(out, v)
	}
	return out
}

func less(a, b uint64) bool { return a < b }

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		args []loser.Sequence[uint64]
		want []uint64
	}{
		{
			name: "empty input",
			want: []uint64{},
		},
		{
			name: "one list",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 2, 3, 4)},
			want: []uint64{1, 2, 3, 4},
		},
		{
			name: "two lists",
			args: []loser.Sequence[uint64]{NewList[uint64](3, 4, 5), NewList[uint64](1, 2)},
			want: []uint64{1, 2, 3, 4, 5},
		},
		{
			name: "two lists, first empty",
			args: []loser.Sequence[uint64]{NewList[uint64](), NewList[uint64](1, 2)},
			want: []uint64{1, 2},
		},
		{
			name: "two lists, second empty",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 2), NewList[uint64]()},
			want: []uint64{1, 2},
		},
		{
			name: "all lists empty",
			args: []loser.Sequence[uint64]{NewList[uint64](), NewList[uint64](), NewList[uint64]()},
			want: []uint64{},
		},
		{
			name: "interleaved",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 3), NewList[uint64](2, 4, 5)},
			want: []uint64{1, 2, 3, 4, 5},
		},
		{
			name: "three lists",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 3), NewList[uint64](2, 4), NewList[uint64](5)},
			want: []uint64{1, 2, 3, 4, 5},
		},
		{
			name: "duplicates are kept",
			args: []loser.Sequence[uint64]{NewList[uint64](1, 2, 2), NewList[uint64](2, 3)},
			want: []uint64{1, 2, 2, 2, 3},
		},
		{
			name: "max value is an ordinary value",
			args: []loser.Sequence[uint64]{NewList[uint64](1, math.MaxUint64), NewList[uint64](math.MaxUint64)},
			want: []uint64{1, math.MaxUint64, math.MaxUint64},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := loser.New(tt.args, less)
			assert.Equal(t, tt.want, collect[uint64](lt))
		})
	}
}

func TestMergeStableOnTies(t *testing.T) {
	type tagged struct {
		key    int
		source string
	}
	byKey := func(a, b tagged) bool { return a.key < b.key }

	lt := loser.New([]loser.Sequence[tagged]{
		NewList(tagged{1, "a"}, tagged{2, "a"}),
		NewList(tagged{1, "b"}, tagged{2, "b"}),
		NewList(tagged{2, "c"}),
	}, byKey)

	assert.Equal(t, []tagged{
		{1, "a"}, {1, "b"}, {2, "a"}, {2, "b"}, {2, "c"},
	}, collect[tagged](lt))
}

func TestMergeEarlyStop(t *testing.T) {
	lt := loser.New([]loser.Sequence[uint64]{
		NewList[uint64](1, 4),
		NewList[uint64](2, 3),
	}, less)

	var got []uint64
	for v := range lt.All() {
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []uint64{1, 2}, got)
}
