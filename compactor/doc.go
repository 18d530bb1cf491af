// Package compactor merges several sorted sequences into one stream written to a
// Sink. External priority queues use it to fold their spilled runs into a single
// run once too many of them are open.
//
// The merge runs through a loser tree and holds one value per input sequence in
// memory, so memory use does not depend on the length of the runs. Unlike a
// key-value compaction, nothing is deduplicated: every input value reaches the
// sink exactly once.
//
// Basic usage:
//
//	n, err := compactor.Compact[int](sink, func(a, b int) bool { return a < b }, run1, run2)
//	if err != nil {
//	    log.Fatal(err)
//	}
package compactor
