// Package runfile implements the on-disk format of a sorted run spilled by an
// external priority queue.
//
// A run is written once, front to back, and read once, front to back. The writer
// never seeks, so runs can be streamed into any io.Writer; the reader needs an
// io.ReadSeeker to validate the footer before the first record is returned.
//
// File format:
//   - Header (16 bytes):
//   - Magic number (8 bytes, "LPQR" in hex)
//   - Format version (8 bytes)
//   - Records:
//   - Sequence of recordio records in the order they were added
//   - Footer (16 bytes):
//   - Record count (8 bytes)
//   - Magic number (8 bytes, "ENDR" in hex)
//
// A run whose writer was never closed has no footer and is rejected by OpenReader.
package runfile
