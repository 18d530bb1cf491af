package compactor

import (
	"fmt"

	"github.com/davidvella/levelq/loser"
)

// Sink receives merged values in order.
type Sink[E any] interface {
	Add(v E) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[E any] func(v E) error

func (f SinkFunc[E]) Add(v E) error { return f(v) }

// Compact streams the merge of sequences into w and returns the number of
// values written. Equal values are all kept, in sequence order.
func Compact[E any](w Sink[E], less func(a, b E) bool, sequences ...loser.Sequence[E]) (int64, error) {
	if len(sequences) == 0 {
		return 0, nil
	}

	var (
		lt = loser.New(sequences, less)
		n  int64
	)
	for v := range lt.All() {
		if err := w.Add(v); err != nil {
			return n, fmt.Errorf("compactor: write value %d: %w", n, err)
		}
		n++
	}
	return n, nil
}
