package filestore_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/spill/filestore"
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

func runFiles(t *testing.T, dir string) []string {
	t.Helper()
	m, err := filepath.Glob(filepath.Join(dir, "run-*.lpq"))
	require.NoError(t, err)
	return m
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	s, err := filestore.New(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	a := writeRun(t, s, "1", "2", "3")
	b := writeRun(t, s)

	assert.Equal(t, int64(3), a.Len())
	assert.Equal(t, int64(0), b.Len())
	assert.Equal(t, []string{"1", "2", "3"}, readRun(t, a))
	assert.Empty(t, readRun(t, b))
	assert.Len(t, runFiles(t, dir), 2)
	assert.Equal(t, 2, s.Runs())

	require.NoError(t, a.Remove())
	assert.Len(t, runFiles(t, dir), 1)
	assert.Equal(t, 1, s.Runs())

	require.NoError(t, s.Close())
	assert.Empty(t, runFiles(t, dir))

	_, err = os.Stat(dir)
	require.NoError(t, err, "caller owned directory is kept")

	_, err = s.Create()
	assert.ErrorIs(t, err, spill.ErrClosed)
}

func TestStoreTempDir(t *testing.T) {
	s, err := filestore.New("", nil)
	require.NoError(t, err)

	writeRun(t, s, "x")
	dir := s.Dir()

	require.NoError(t, s.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, s.Close())
}
