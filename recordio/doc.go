// Package recordio implements the framing of the records stored in spilled
// priority-queue runs. Every record is an opaque payload wrapped in magic bytes,
// a length prefix and a CRC32 (IEEE) of the payload, so a torn or corrupted run
// is detected on read rather than decoded into wrong elements.
//
// Record layout:
//   - Magic bytes (3 bytes, "REC")
//   - Payload length (8 bytes, little endian)
//   - Payload
//   - CRC32 of the payload (4 bytes, little endian)
//
// Basic usage:
//
//	var buf bytes.Buffer
//	if _, err := recordio.Write(&buf, payload); err != nil {
//	    log.Fatal(err)
//	}
//
//	for payload, err := range recordio.Seq(&buf) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // Decode payload
//	}
package recordio
