package stats

// Spill counts the disk activity of external priority queues.
type Spill struct {
	// Spills is the number of sorted runs written from memory.
	Spills uint64
	// SpilledElements is the number of elements written by those spills.
	SpilledElements uint64
	// Compactions is the number of times runs were merged into one.
	Compactions uint64
}

// Add accumulates o into s.
func (s *Spill) Add(o Spill) {
	s.Spills += o.Spills
	s.SpilledElements += o.SpilledElements
	s.Compactions += o.Compactions
}

// LevelizedQueue counts the routing decisions of a levelized priority queue.
type LevelizedQueue struct {
	PushBucket   uint64
	PushOverflow uint64

	// Relabels counts buckets reassigned to a new level after their first one.
	Relabels uint64
	// SkippedLevels counts levels passed over without becoming current.
	SkippedLevels uint64

	SumPredictedMaxSize uint64
	SumActualMaxSize    uint64
	Destructors         uint64

	Spill Spill
}

// Add accumulates o into s.
func (s *LevelizedQueue) Add(o LevelizedQueue) {
	s.PushBucket += o.PushBucket
	s.PushOverflow += o.PushOverflow
	s.Relabels += o.Relabels
	s.SkippedLevels += o.SkippedLevels
	s.SumPredictedMaxSize += o.SumPredictedMaxSize
	s.SumActualMaxSize += o.SumActualMaxSize
	s.Destructors += o.Destructors
	s.Spill.Add(o.Spill)
}

// Reset zeroes every counter.
func (s *LevelizedQueue) Reset() { *s = LevelizedQueue{} }

// Pushes returns the total number of pushes.
func (s *LevelizedQueue) Pushes() uint64 { return s.PushBucket + s.PushOverflow }

// MaxSizeRatio is the summed actual maximum size over the summed predicted
// one, or 0 when nothing was predicted.
func (s *LevelizedQueue) MaxSizeRatio() float64 {
	if s.SumPredictedMaxSize == 0 {
		return 0
	}
	return float64(s.SumActualMaxSize) / float64(s.SumPredictedMaxSize)
}
