package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/logtail"
	"github.com/five82/memheat/internal/trace"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Heat                heatmap.Snapshot
	HasHeat             bool
	Tail                logtail.Stats
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed polls
}

// IsStalled returns true when the trace has been unreadable for multiple polls.
func (s Snapshot) IsStalled() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous
// heatmap is kept but the error and tail counters are recorded for visibility.
func (s *Store) Update(heat *heatmap.Snapshot, tail logtail.Stats, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail.LastError = nil
	s.snapshot.Tail = tail
	s.snapshot.LastUpdated = time.Now()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if heat != nil {
		s.snapshot.Heat = cloneHeat(*heat)
		s.snapshot.HasHeat = true
	} else {
		s.snapshot.HasHeat = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Heat = cloneHeat(s.snapshot.Heat)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneHeat(h heatmap.Snapshot) heatmap.Snapshot {
	dup := h
	dup.Reads = cloneCounts(h.Reads)
	dup.Writes = cloneCounts(h.Writes)
	if h.Totals.Discarded != nil {
		dup.Totals.Discarded = make(map[trace.Reason]uint64, len(h.Totals.Discarded))
		for k, v := range h.Totals.Discarded {
			dup.Totals.Discarded[k] = v
		}
	}
	return dup
}

func cloneCounts(items []uint64) []uint64 {
	if len(items) == 0 {
		return nil
	}
	dup := make([]uint64, len(items))
	copy(dup, items)
	return dup
}
