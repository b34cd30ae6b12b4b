// Package logtail follows the emulator's trace file.
//
// # Overview
//
// The trace file is append-only from the producer's side but may be
// truncated or recreated at any time. Tailer keeps a byte cursor into it
// and, on every Poll, returns only the complete lines written since the
// previous call.
//
// # Cursor Rules
//
//   - Missing file: Poll returns nothing. The producer may not have started.
//   - Cursor beyond the current size: the file rotated. The cursor rewinds to
//     zero, Stats().Rotations increments and an info line is logged.
//   - Trailing partial line: left unread. The cursor stops at its first byte
//     so the next Poll sees the whole line once the producer finishes it.
//   - I/O errors: logged, counted in Stats, and treated as an empty poll.
//
// A Poll reads only the bytes between the cursor and the size observed at
// the start of the call, capped at DefaultMaxReadBytes, so it never blocks
// waiting for data and never rescans the file.
//
// # Sources
//
// Tailer reads through the Source interface. FileSource reads a path;
// MemSource holds bytes in memory and lets tests append, replace, remove
// and fail on demand.
//
// # Reading Auxiliary Files
//
// Read returns the last N lines of a whole file using a ring buffer. It is
// used for the per-frame instruction logs, which are read once rather than
// followed.
package logtail
