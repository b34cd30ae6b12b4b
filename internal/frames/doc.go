// Package frames locates the per-frame files an instrumented emulator writes
// next to its trace: a screenshot and an instruction log, addressed by
// zero-padded frame number.
//
// Results are cached in a small LRU. A Loader allows one load at a time;
// Request drops work that arrives while a load is running so that
// scrubbing quickly through frames never queues up disk reads.
package frames
