package runfile_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidvella/levelq/runfile"
)

func writeRun(t *testing.T, payloads ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := runfile.OpenWriter(&buf, nil)
	require.NoError(t, err)
	for _, p := range payloads {
		require.NoError(t, w.Add([]byte(p)))
	}
	assert.Equal(t, int64(len(payloads)), w.Count())
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func readAll(t *testing.T, r *runfile.Reader) []string {
	t.Helper()
	var out []string
	for {
		p, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, string(p))
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		payloads []string
	}{
		{name: "empty run"},
		{name: "single record", payloads: []string{"a"}},
		{name: "several records", payloads: []string{"a", "b", "", "dddd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := writeRun(t, tt.payloads...)

			r, err := runfile.OpenReader(bytes.NewReader(data), &runfile.Options{BufferSize: 64})
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, int64(len(tt.payloads)), r.Len())
			assert.Equal(t, tt.payloads, readAll(t, r))

			_, err = r.Next()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestManyRecords(t *testing.T) {
	payloads := make([]string, 5000)
	for i := range payloads {
		payloads[i] = fmt.Sprintf("record-%05d", i)
	}
	data := writeRun(t, payloads...)

	r, err := runfile.OpenReader(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, payloads, readAll(t, r))
}

func TestOpenReaderRejectsCorruptRuns(t *testing.T) {
	valid := writeRun(t, "a", "b")

	tests := []struct {
		name  string
		input func() []byte
	}{
		{
			name:  "too short",
			input: func() []byte { return valid[:10] },
		},
		{
			name: "bad header",
			input: func() []byte {
				b := bytes.Clone(valid)
				b[0] ^= 0xFF
				return b
			},
		},
		{
			name: "missing footer",
			input: func() []byte {
				return valid[:len(valid)-4]
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runfile.OpenReader(bytes.NewReader(tt.input()), nil)
			assert.Error(t, err)
		})
	}
}

func TestTruncatedRecord(t *testing.T) {
	data := writeRun(t, "aaaa", "bbbb")
	// Keep the footer but cut the second record in half.
	footer := data[len(data)-16:]
	cut := append(bytes.Clone(data[:len(data)-16-10]), footer...)

	r, err := runfile.OpenReader(bytes.NewReader(cut), nil)
	require.NoError(t, err)

	p, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(p))

	_, err = r.Next()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestClosed(t *testing.T) {
	var buf bytes.Buffer
	w, err := runfile.OpenWriter(&buf, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Add([]byte("late")), runfile.ErrClosed)

	r, err := runfile.OpenReader(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = r.Next()
	assert.ErrorIs(t, err, runfile.ErrClosed)
}

func TestNilArguments(t *testing.T) {
	_, err := runfile.OpenWriter(nil, nil)
	assert.Error(t, err)
	_, err = runfile.OpenReader(nil, nil)
	assert.Error(t, err)
}

func TestOpenReaderRewinds(t *testing.T) {
	data := writeRun(t, "first", "second")

	rs := bytes.NewReader(data)
	_, err := rs.Seek(7, io.SeekStart)
	require.NoError(t, err)

	r, err := runfile.OpenReader(rs, &runfile.Options{BufferSize: 16})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, readAll(t, r))
}
