package level_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvella/levelq/level"
)

func drain(m *level.Merger) []level.Info {
	var out []level.Info
	for m.CanPull() {
		out = append(out, m.PullInfo())
	}
	return out
}

func TestMergerPull(t *testing.T) {
	tests := []struct {
		name    string
		less    level.Comparator
		sources func() []level.Source
		want    []level.Info
	}{
		{
			name:    "no sources",
			less:    level.Ascending,
			sources: func() []level.Source { return nil },
		},
		{
			name: "only empty sources",
			less: level.Ascending,
			sources: func() []level.Source {
				return []level.Source{level.NewFile(), level.NewFile()}
			},
		},
		{
			name: "single source with an empty one",
			less: level.Ascending,
			sources: func() []level.Source {
				return []level.Source{
					level.NewFile(
						level.Info{Level: 4, Width: 1},
						level.Info{Level: 3, Width: 2},
						level.Info{Level: 2, Width: 2},
						level.Info{Level: 1, Width: 1},
					),
					level.NewFile(),
				}
			},
			want: []level.Info{{1, 1}, {2, 2}, {3, 2}, {4, 1}},
		},
		{
			name: "shared levels collapse",
			less: level.Ascending,
			sources: func() []level.Source {
				return []level.Source{
					level.NewFile(
						level.Info{Level: 4, Width: 2},
						level.Info{Level: 2, Width: 1},
					),
					level.NewFile(
						level.Info{Level: 4, Width: 3},
						level.Info{Level: 3, Width: 2},
						level.Info{Level: 1, Width: 1},
					),
				}
			},
			want: []level.Info{{1, 1}, {2, 1}, {3, 2}, {4, 5}},
		},
		{
			name: "three sources on the same levels",
			less: level.Ascending,
			sources: func() []level.Source {
				f := level.NewFile(level.Info{Level: 1, Width: 1})
				return []level.Source{f, f, f}
			},
			want: []level.Info{{1, 3}},
		},
		{
			name: "descending",
			less: level.Descending,
			sources: func() []level.Source {
				return []level.Source{
					// Written bottom-up, so read largest first.
					level.NewFile(
						level.Info{Level: 1, Width: 1},
						level.Info{Level: 3, Width: 1},
					),
					level.NewFile(
						level.Info{Level: 0, Width: 1},
						level.Info{Level: 2, Width: 4},
						level.Info{Level: 3, Width: 2},
					),
				}
			},
			want: []level.Info{{3, 3}, {2, 4}, {1, 1}, {0, 1}},
		},
		{
			name: "reversed in write order",
			less: level.Ascending,
			sources: func() []level.Source {
				return []level.Source{
					level.NewFile(
						level.Info{Level: 1, Width: 1},
						level.Info{Level: 3, Width: 1},
					).Reversed(),
					level.NewFile(
						level.Info{Level: 0, Width: 1},
						level.Info{Level: 3, Width: 2},
					).Reversed(),
				}
			},
			want: []level.Info{{0, 1}, {1, 1}, {3, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := level.NewMerger(tt.less)
			defer m.Close()

			m.Hook(tt.sources()...)
			assert.Equal(t, tt.want, drain(m))
			assert.False(t, m.CanPull())
		})
	}
}

func TestMergerPeekDoesNotConsume(t *testing.T) {
	m := level.NewMerger(level.Ascending)
	defer m.Close()
	m.Hook(level.NewFile(level.Info{Level: 2, Width: 1}, level.Info{Level: 1, Width: 1}))

	require.True(t, m.CanPull())
	assert.Equal(t, level.Level(1), m.Peek())
	assert.Equal(t, level.Level(1), m.Peek())
	assert.Equal(t, level.Level(1), m.Pull())
	assert.Equal(t, level.Level(2), m.Peek())
	assert.Equal(t, level.Level(2), m.Pull())
	assert.False(t, m.CanPull())
}

func TestMergerCloseMidMerge(t *testing.T) {
	m := level.NewMerger(level.Ascending)
	m.Hook(level.NewFile(
		level.Info{Level: 3, Width: 1},
		level.Info{Level: 2, Width: 1},
		level.Info{Level: 1, Width: 1},
	))
	assert.Equal(t, level.Level(1), m.Pull())

	m.Close()
	assert.False(t, m.CanPull())
	assert.NotPanics(t, m.Close)
}

func TestMergerOutlivesSources(t *testing.T) {
	f := level.NewFile(
		level.Info{Level: 3, Width: 1},
		level.Info{Level: 2, Width: 1},
		level.Info{Level: 1, Width: 1},
	)
	g := level.NewFile(level.Info{Level: 2, Width: 7})

	m := level.NewMerger(level.Ascending)
	defer m.Close()
	m.Hook(f, g)

	f.Reset()
	g.Reset()
	f.Push(level.Info{Level: 0, Width: 9})

	assert.Equal(t, []level.Info{{1, 1}, {2, 8}, {3, 1}}, drain(m))
}

func TestMergerRehook(t *testing.T) {
	m := level.NewMerger(level.Ascending)
	defer m.Close()

	m.Hook(level.NewFile(level.Info{Level: 2, Width: 1}, level.Info{Level: 1, Width: 1}))
	assert.Equal(t, level.Level(1), m.Pull())

	m.Hook(level.NewFile(level.Info{Level: 0, Width: 1}))
	assert.Equal(t, []level.Info{{0, 1}}, drain(m))
}

func TestMergerContractViolations(t *testing.T) {
	t.Run("peek on exhausted merger", func(t *testing.T) {
		m := level.NewMerger(level.Ascending)
		m.Hook()
		assert.Panics(t, func() { m.Peek() })
		assert.Panics(t, func() { m.Pull() })
	})

	t.Run("source out of order", func(t *testing.T) {
		m := level.NewMerger(level.Ascending)
		defer m.Close()
		// Read top-down this yields 1, 3, 2.
		m.Hook(level.NewFile(
			level.Info{Level: 2, Width: 1},
			level.Info{Level: 3, Width: 1},
			level.Info{Level: 1, Width: 1},
		))
		assert.Equal(t, level.Level(1), m.Pull())
		assert.Panics(t, func() { m.Pull() })
	})

	t.Run("source against the comparator", func(t *testing.T) {
		m := level.NewMerger(level.Descending)
		defer m.Close()
		// Reversed yields write order, 1 then 3.
		f := level.NewFile(level.Info{Level: 1, Width: 1}, level.Info{Level: 3, Width: 1})
		assert.Panics(t, func() {
			m.Hook(f.Reversed())
			m.Pull()
		})
	})
}

func TestMergerMemoryUsage(t *testing.T) {
	assert.Zero(t, level.MergerMemoryUsage(0))
	assert.Equal(t, 2*level.MergerMemoryUsage(1), level.MergerMemoryUsage(2))
}
