// Package level describes the levels of a decision diagram and merges the level
// information of several diagrams into one stream.
//
// Every diagram a sweep reads comes with a Source: the levels it has nodes on,
// in processing order, with the number of nodes (the width) per level. A Merger
// joins those sources so that a sweep over several diagrams knows every level
// that may receive work:
//
//	f := level.NewFile(level.Info{Level: 2, Width: 1}, level.Info{Level: 1, Width: 1})
//	g := level.NewFile(level.Info{Level: 3, Width: 2}, level.Info{Level: 1, Width: 1})
//
//	m := level.NewMerger(level.Ascending)
//	m.Hook(f, g)
//	defer m.Close()
//
//	for m.CanPull() {
//	    info := m.PullInfo() // {1 2}, {2 1}, {3 2}
//	}
//
// A File stores entries in the order they were written. Sweeps write level
// information bottom-up, so All reads a File top-down (last written first) and
// Reversed reads it in write order.
package level
