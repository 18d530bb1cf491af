package runfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/davidvella/levelq/recordio"
)

var (
	ErrClosed    = errors.New("runfile: already closed")
	ErrCorrupted = errors.New("runfile: corrupted run")
	headerSize   = int64(binary.Size(magicHeader) + binary.Size(formatVersion))
	footerSize   = int64(binary.Size(int64(0)) + binary.Size(magicFooter))
)

// File format constants.
const (
	magicHeader    = int64(0x4C505152) // "LPQR" in hex
	magicFooter    = int64(0x454E4452) // "ENDR" in hex
	formatVersion  = int64(1)
	defaultBufSize = 32 * 1024
)

// Options configures readers and writers.
type Options struct {
	// BufferSize is the size of the read/write buffer.
	BufferSize int
}

func (o *Options) bufferSize() int {
	if o == nil || o.BufferSize <= 0 {
		return defaultBufSize
	}
	return o.BufferSize
}

// Writer appends records to a run.
type Writer struct {
	buf    *bufio.Writer
	bw     recordio.BinaryWriter
	count  int64
	closed bool
}

// OpenWriter writes the run header to w and returns a Writer for it.
func OpenWriter(w io.Writer, opts *Options) (*Writer, error) {
	if w == nil {
		return nil, errors.New("runfile: writer cannot be nil")
	}

	buf := bufio.NewWriterSize(w, opts.bufferSize())
	writer := &Writer{
		buf: buf,
		bw:  recordio.NewBinaryWriter(buf),
	}

	if err := writer.writeHeader(); err != nil {
		return nil, fmt.Errorf("runfile: failed to write header: %w", err)
	}

	return writer, nil
}

// Add appends one record.
func (w *Writer) Add(payload []byte) error {
	if w.closed {
		return ErrClosed
	}
	if _, err := recordio.Write(w.buf, payload); err != nil {
		return fmt.Errorf("runfile: write error: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records added so far.
func (w *Writer) Count() int64 { return w.count }

// Close writes the footer and flushes the buffer. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if _, err := w.bw.WriteInt64(w.count); err != nil {
		return fmt.Errorf("runfile: failed to write footer: %w", err)
	}
	if _, err := w.bw.WriteInt64(magicFooter); err != nil {
		return fmt.Errorf("runfile: failed to write footer: %w", err)
	}
	return w.buf.Flush()
}

func (w *Writer) writeHeader() error {
	if _, err := w.bw.WriteInt64(magicHeader); err != nil {
		return err
	}
	_, err := w.bw.WriteInt64(formatVersion)
	return err
}

// Reader reads the records of a run in the order they were written.
type Reader struct {
	buf    *bufio.Reader
	count  int64
	read   int64
	closed bool
}

// OpenReader validates the footer and header of the run in rs and positions
// the reader on the first record. The footer is read straight from rs; every
// later read goes through one buffer that starts at the header.
func OpenReader(rs io.ReadSeeker, opts *Options) (*Reader, error) {
	if rs == nil {
		return nil, errors.New("runfile: reader cannot be nil")
	}

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("runfile: seek error: %w", err)
	}
	if size < headerSize+footerSize {
		return nil, ErrCorrupted
	}

	count, err := readFooter(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("runfile: seek error: %w", err)
	}

	r := &Reader{
		buf:   bufio.NewReaderSize(rs, opts.bufferSize()),
		count: count,
	}
	if err := r.checkHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// Len returns the number of records in the run.
func (r *Reader) Len() int64 { return r.count }

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.read == r.count {
		return nil, io.EOF
	}
	payload, err := recordio.ReadRecord(r.buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("runfile: record %d: %w", r.read, err)
	}
	r.read++
	return payload, nil
}

// Close marks the reader closed. It does not close the underlying reader.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}

func (r *Reader) checkHeader() error {
	br := recordio.NewBinaryReader(r.buf)
	header, err := br.ReadInt64()
	if err != nil {
		return fmt.Errorf("runfile: invalid header: %w", err)
	}
	if header != magicHeader {
		return ErrCorrupted
	}

	version, err := br.ReadInt64()
	if err != nil {
		return fmt.Errorf("runfile: invalid version: %w", err)
	}
	if version != formatVersion {
		return fmt.Errorf("runfile: unsupported version %d", version)
	}
	return nil
}

// readFooter returns the record count stored at the end of rs.
func readFooter(rs io.ReadSeeker) (int64, error) {
	if _, err := rs.Seek(-footerSize, io.SeekEnd); err != nil {
		return 0, err
	}
	br := recordio.NewBinaryReader(rs)
	count, err := br.ReadInt64()
	if err != nil {
		return 0, fmt.Errorf("runfile: invalid footer: %w", err)
	}
	footer, err := br.ReadInt64()
	if err != nil {
		return 0, fmt.Errorf("runfile: invalid footer: %w", err)
	}
	if footer != magicFooter || count < 0 {
		return 0, ErrCorrupted
	}
	return count, nil
}
