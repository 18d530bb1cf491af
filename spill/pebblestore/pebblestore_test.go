package pebblestore_test

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/spill/pebblestore"
)

func writeRun(t *testing.T, s spill.Store, recs ...string) spill.Run {
	t.Helper()
	w, err := s.Create()
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Append([]byte(r)))
	}
	run, err := w.Finish()
	require.NoError(t, err)
	return run
}

func readRun(t *testing.T, run spill.Run) []string {
	t.Helper()
	r, err := run.Open()
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	var out []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, string(rec))
	}
}

func TestStore(t *testing.T) {
	tests := []struct {
		name string
		opts func(t *testing.T) *pebblestore.Options
	}{
		{
			name: "in memory",
			opts: func(*testing.T) *pebblestore.Options {
				return &pebblestore.Options{InMemory: true, BatchLen: 2}
			},
		},
		{
			name: "on disk",
			opts: func(t *testing.T) *pebblestore.Options {
				return &pebblestore.Options{Dir: t.TempDir(), BatchLen: 3, CacheSize: 1 << 20}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := pebblestore.Open(tt.opts(t))
			require.NoError(t, err)

			recs := make([]string, 10)
			for i := range recs {
				recs[i] = fmt.Sprintf("rec-%d", i)
			}
			a := writeRun(t, s, recs...)
			b := writeRun(t, s, "other")
			c := writeRun(t, s)

			assert.Equal(t, int64(10), a.Len())
			assert.Equal(t, recs, readRun(t, a))
			assert.Equal(t, []string{"other"}, readRun(t, b))
			assert.Empty(t, readRun(t, c))
			assert.Equal(t, 3, s.Runs())

			require.NoError(t, a.Remove())
			assert.Empty(t, readRun(t, a))
			assert.Equal(t, []string{"other"}, readRun(t, b))
			assert.Equal(t, 2, s.Runs())

			require.NoError(t, s.Close())
			require.NoError(t, s.Close())
			_, err = s.Create()
			assert.ErrorIs(t, err, spill.ErrClosed)
		})
	}
}

func TestStoreTempDir(t *testing.T) {
	s, err := pebblestore.Open(nil)
	require.NoError(t, err)
	writeRun(t, s, "x")
	require.NoError(t, s.Close())
}

func TestStoreKeepsCallerDir(t *testing.T) {
	dir := t.TempDir()
	s, err := pebblestore.Open(&pebblestore.Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
