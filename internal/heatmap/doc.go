// Package heatmap aggregates memory accesses into a fixed-resolution
// address-space histogram.
//
// # Overview
//
// An Aggregator owns one View (an inclusive address window split into a
// fixed number of buckets) and two counter arrays, reads and writes, with
// one slot per bucket. Ingest parses raw trace lines with package trace and
// increments the bucket each address falls into. Snapshot hands a renderer
// deep copies, so the poller can keep ingesting while a frame is drawn.
//
// # Bucket Math
//
//	bucket_size = max(1, (end - start + 1) / buckets)   // floor division
//	index       = (addr - start) / bucket_size
//
// The last bucket absorbs the division remainder: any in-window index that
// would land at or beyond buckets-1 is clamped there, and addr == end always
// maps to buckets-1. Addresses outside the window are skipped silently.
//
// # Zoom Policies
//
// SetView, ZoomInto, ZoomOut and Pan change the window. How the counters
// for the new window are produced depends on the Policy:
//
//   - PolicyHistory keeps a backing store at the resolution of the full
//     view (memory_size / base_bucket_size slots) that every in-space record
//     updates regardless of the current view. A new window is rebuilt by
//     adding each overlapping backing slot to the bucket holding the first
//     address of the overlap. Zoomed-in history is therefore approximate
//     (coarser than the new buckets); returning to the full view is exact.
//   - PolicyReset zero-fills the new window. It costs no extra memory but
//     everything counted before the zoom is lost from view.
//
// Setting the window that is already active does nothing, so repeated
// identical calls leave the counters exactly as one call would.
//
// # Frames
//
// Frame-tagged records carry a frame number. When it changes between two
// consecutive records the counters as they stand are archived under the
// previous frame number. Counters keep accumulating across frames; an
// archived frame is the running total at the moment that frame ended.
// Archived entries are never modified. The archive is bounded by
// Options.FrameHistory, dropping the oldest frame first.
//
// # Delta
//
// Delta reports per-bucket growth since the previous Delta call. The
// renderer uses it to flash buckets that just received traffic. View
// changes and Reset re-baseline it so a zoom does not flash everything.
//
// # Concurrency
//
// All methods take a single mutex. There is no background work.
package heatmap
