package recordio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"iter"
)

var (
	// MagicBytes opens every record (REC).
	MagicBytes = []byte{0x52, 0x45, 0x43}

	ErrInvalidMagicBytes = errors.New("recordio: invalid magic bytes")
	ErrChecksum          = errors.New("recordio: checksum mismatch")
	ErrTooLarge          = errors.New("recordio: record exceeds maximum size")
)

// MaxRecordSize bounds the payload a reader accepts, so a corrupted length
// cannot trigger a huge allocation.
const MaxRecordSize = 1 << 30

const (
	lengthSize   = 8
	checksumSize = 4
	headerSize   = 3 + lengthSize
)

var byteOrder = binary.LittleEndian

// Size returns the number of bytes Write produces for payload.
func Size(payload []byte) int64 {
	return headerSize + int64(len(payload)) + checksumSize
}

// Write frames payload as one record: the magic bytes, the payload length,
// the payload and its CRC32. It returns the number of bytes written.
func Write(w io.Writer, payload []byte) (int64, error) {
	var header [headerSize]byte
	copy(header[:], MagicBytes)
	byteOrder.PutUint64(header[len(MagicBytes):], uint64(len(payload)))

	var written int64
	n, err := w.Write(header[:])
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("recordio: writing header: %w", err)
	}

	n, err = w.Write(payload)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("recordio: writing payload: %w", err)
	}

	var sum [checksumSize]byte
	byteOrder.PutUint32(sum[:], crc32.ChecksumIEEE(payload))
	n, err = w.Write(sum[:])
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("recordio: writing checksum: %w", err)
	}
	return written, nil
}

// ReadRecord reads the next record from r. It returns io.EOF when r has no
// data left and io.ErrUnexpectedEOF (wrapped) when a record is cut short.
func ReadRecord(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("recordio: reading header: %w", err)
	}
	if !bytes.Equal(header[:len(MagicBytes)], MagicBytes) {
		return nil, ErrInvalidMagicBytes
	}

	length := byteOrder.Uint64(header[len(MagicBytes):])
	if length > MaxRecordSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, length)
	}

	// Payload and checksum are read together.
	body := make([]byte, length+checksumSize)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("recordio: reading payload: %w", err)
	}

	payload := body[:length:length]
	if byteOrder.Uint32(body[length:]) != crc32.ChecksumIEEE(payload) {
		return nil, ErrChecksum
	}
	return payload, nil
}

// Seq iterates over the records of r until the end of the data or the first
// error, which is yielded with a nil payload.
func Seq(r io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			payload, err := ReadRecord(r)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(payload, err) || err != nil {
				return
			}
		}
	}
}

// BinaryWriter writes fixed-size integers in the byte order used by records.
type BinaryWriter struct {
	w io.Writer
}

func NewBinaryWriter(w io.Writer) BinaryWriter {
	return BinaryWriter{w: w}
}

// WriteInt64 writes i and returns the number of bytes written.
func (bw BinaryWriter) WriteInt64(i int64) (int64, error) {
	var b [8]byte
	byteOrder.PutUint64(b[:], uint64(i))
	n, err := bw.w.Write(b[:])
	return int64(n), err
}

// BinaryReader reads what a BinaryWriter wrote.
type BinaryReader struct {
	r io.Reader
}

func NewBinaryReader(r io.Reader) BinaryReader {
	return BinaryReader{r: r}
}

func (br BinaryReader) ReadInt64() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, err
	}
	return int64(byteOrder.Uint64(b[:])), nil
}
