package level

import (
	"iter"
	"slices"
)

// Level is a position in the global variable order.
type Level uint32

// Info reports how many nodes (Width) a diagram has on a Level.
type Info struct {
	Level Level
	Width uint64
}

// Comparator is a strict order over levels. It returns true when a is
// processed before b.
type Comparator func(a, b Level) bool

// Ascending visits levels from the smallest to the largest.
func Ascending(a, b Level) bool { return a < b }

// Descending visits levels from the largest to the smallest.
func Descending(a, b Level) bool { return a > b }

// Source is a sorted stream of level information, one entry per level.
type Source interface {
	All() iter.Seq[Info]
}

// File is an in-memory level-info file. Sweeps produce level information
// bottom-up, so entries are appended in that order and read back in reverse.
type File struct {
	infos []Info
}

// NewFile returns a File holding infos in write order.
func NewFile(infos ...Info) *File {
	return &File{infos: slices.Clone(infos)}
}

// Push appends info to the end of the file.
func (f *File) Push(info Info) {
	f.infos = append(f.infos, info)
}

// Len returns the number of levels in the file.
func (f *File) Len() int { return len(f.infos) }

// Width returns the sum of all widths in the file.
func (f *File) Width() uint64 {
	var w uint64
	for _, i := range f.infos {
		w += i.Width
	}
	return w
}

// Reset drops the content of the file. Streams already opened keep their
// snapshot.
func (f *File) Reset() { f.infos = nil }

// All yields the entries from the last written to the first.
func (f *File) All() iter.Seq[Info] {
	snapshot := slices.Clone(f.infos)
	return func(yield func(Info) bool) {
		for i := len(snapshot) - 1; i >= 0; i-- {
			if !yield(snapshot[i]) {
				return
			}
		}
	}
}

// Reversed returns a Source yielding the entries in write order.
func (f *File) Reversed() Source { return reversed{f} }

type reversed struct{ f *File }

func (r reversed) All() iter.Seq[Info] {
	snapshot := slices.Clone(r.f.infos)
	return slices.Values(snapshot)
}
