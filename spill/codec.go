package spill

import (
	"bytes"
	"encoding/gob"
)

// Codec converts queue elements to and from spilled records.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// GobCodec encodes each element as a standalone gob stream. T must be
// encodable by encoding/gob, i.e. expose its state through exported fields.
type GobCodec[T any] struct{}

func (GobCodec[T]) Marshal(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec[T]) Unmarshal(data []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v)
	return v, err
}

// CodecFunc adapts a pair of functions to a Codec.
type CodecFunc[T any] struct {
	MarshalFunc   func(v T) ([]byte, error)
	UnmarshalFunc func(data []byte) (T, error)
}

func (c CodecFunc[T]) Marshal(v T) ([]byte, error)      { return c.MarshalFunc(v) }
func (c CodecFunc[T]) Unmarshal(data []byte) (T, error) { return c.UnmarshalFunc(data) }
