// Package pebblestore stores spilled runs in a pebble database. Each run is the
// key range run/<uuid>/ followed by a big endian sequence number, so iterating the
// range returns the records in the order they were appended, and removing a run is
// a single range deletion.
package pebblestore
