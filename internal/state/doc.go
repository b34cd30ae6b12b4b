// Package state provides thread-safe state sharing between the poller and the UI.
//
// # Overview
//
// The poller owns the tailer and drives the aggregator. After each tick it
// publishes a copy of the aggregate and the tailer counters to a Store; the
// UI reads Snapshot on its own schedule and never touches the tailer.
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ tailer.Poll()  │            │                 │
//	│ agg.Ingest()   │            │                 │
//	│ agg.Snapshot() │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render grid    │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
//	// Success: replace the heatmap, clear the error
//	store.Update(&heat, tail, nil)
//
//	// Trace unreadable: keep the last heatmap, record the error
//	store.Update(nil, tail, err)
//
// Tail counters are stored on every update so the header can show errors
// and rotations even while the heatmap is frozen. IsStalled turns true after
// two consecutive failed polls.
//
// # Defensive Copying
//
// Counter slices and the discard map are cloned on the way in and on the
// way out. A grid of 10000 buckets costs two 80KB copies per tick, which is
// well below what a terminal redraw costs anyway.
//
// The zero Store is ready to use.
package state
