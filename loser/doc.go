// Package loser implements a tournament tree (also known as a loser tree) for merging
// multiple sorted sequences. It is the merge kernel behind the level merger and the
// compaction of spilled priority-queue runs.
//
// A loser tree is a binary tree where each internal node holds the "loser" of a
// comparison between its children, and node 0 holds the overall "winner". Replacing the
// winner costs one comparison per tree level, so merging N values from M sequences
// takes O(N log M) comparisons.
//
// Basic usage:
//
//	tree := loser.New(
//	    []loser.Sequence[int]{seq1, seq2, seq3},
//	    func(a, b int) bool { return a < b },
//	)
//
//	for v := range tree.All() {
//	    fmt.Println(v)
//	}
//
// Implementation details:
//   - For node N, its children are at positions 2N and 2N+1
//   - Leaf nodes are stored in positions M to 2M-1 (where M is the number of sequences)
//   - Internal nodes are stored in positions 1 to M-1
//   - Each leaf remembers whether its sequence is exhausted; an exhausted leaf loses
//     every game, so no maximum value has to be reserved as a sentinel
//
// Values that compare equal are emitted in the order of the sequences they came from,
// and none of them are dropped.
package loser
