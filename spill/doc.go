// Package spill defines where an external priority queue puts the sorted runs it
// writes once its memory budget is exhausted, and how elements become records.
//
// A Store hands out Writers; a finished Writer becomes a Run that can be opened for
// one sequential read and removed afterwards. Two stores are provided:
//
//   - filestore keeps every run in its own file inside a directory
//   - pebblestore keeps every run as a key range of a pebble database
//
// Elements are turned into records by a Codec; GobCodec works for any type whose
// state is held in exported fields.
package spill
