// Package levelq implements a levelized priority queue: a priority queue for
// sweeps that process work level by level, such as the top-down passes over
// decision diagrams.
//
// Every element belongs to a level. Levels are known up front from one or
// more level.Source values and are visited in the order of a level
// comparator. Elements may be pushed for the current level or any level still
// to come; they are pulled only from the current level, smallest first.
//
// The next LOOK_AHEAD levels each get their own bucket, a priority.Queue that
// only holds elements of that level. Elements further ahead go to one
// overflow queue ordered by level and then by element. When a level becomes
// current its bucket and the overflow are read as one merged stream. Buckets
// are reused for later levels as soon as their level has been passed.
//
// In external mode buckets and overflow spill sorted runs to a spill.Store
// once their share of the memory budget is used up, so a sweep can queue far
// more elements than fit in memory.
//
//	q, err := levelq.New(sources, 64<<20, maxArcs, less, levelq.WithLookAhead(2))
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	for q.HasNextLevel() {
//	    q.SetupNextLevel()
//	    for q.CanPull() {
//	        e := q.Pull()
//	        // push work for later levels
//	    }
//	}
//
// Misusing the queue, for example pushing for a level that has already been
// passed or advancing while the current level still holds elements, panics.
// A Queue is not safe for concurrent use.
package levelq
