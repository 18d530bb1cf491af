// Package priority implements the heap used for every bucket and for the overflow
// of a levelized priority queue. Two backends share the Queue interface:
//
//   - Internal is a binary heap held in a slice. Push and Pop are O(log n).
//   - External keeps an ordered buffer (a B-tree) of as many elements as fit in its
//     memory budget. When the buffer overflows it is written to a spill.Store as one
//     sorted run. Reads compare the buffer minimum against a heap of run cursors,
//     one per run, so the queue hands out elements in the same order as Internal.
//     Once more than Config.MaxRuns runs exist they are merged into one.
//
// The ordering is given by a less function; the smallest element is on top.
//
// Basic usage:
//
//	pq, err := priority.New(priority.ModeExternal, 64<<20, 0, less, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pq.Close()
//
//	pq.Push(v)
//	for pq.HasTop() {
//	    v := pq.Top()
//	    pq.Pop()
//	}
//
// Calling Top or Pop on an empty queue is a programming error and panics. An
// external queue whose spill store fails panics with an error wrapping ErrSpill;
// there is no way to continue a sweep with a lost run.
//
// Elements of an external queue must be encodable by its Codec. The default gob
// codec needs exported fields.
package priority
