package heatmap

import "sort"

// FrameSnapshot is the counter state captured when a frame ended.
type FrameSnapshot struct {
	Frame    int64
	View     View
	Reads    []uint64
	Writes   []uint64
	MaxTotal uint64
}

// archive holds frame snapshots in arrival order. Entries are written once
// and never modified; when full, the oldest frame is dropped.
type archive struct {
	limit  int
	order  []int64
	frames map[int64]FrameSnapshot
}

func newArchive(limit int) *archive {
	return &archive{limit: limit, frames: map[int64]FrameSnapshot{}}
}

func (ar *archive) add(fs FrameSnapshot) bool {
	if _, exists := ar.frames[fs.Frame]; exists {
		return false
	}
	ar.frames[fs.Frame] = fs
	ar.order = append(ar.order, fs.Frame)
	if ar.limit > 0 && len(ar.order) > ar.limit {
		oldest := ar.order[0]
		ar.order = ar.order[1:]
		delete(ar.frames, oldest)
	}
	return true
}

func (a *Aggregator) archiveFrameLocked(frame int64) bool {
	added := a.archive.add(FrameSnapshot{
		Frame:    frame,
		View:     a.view,
		Reads:    append([]uint64(nil), a.reads...),
		Writes:   append([]uint64(nil), a.writes...),
		MaxTotal: maxTotal(a.reads, a.writes),
	})
	if !added {
		a.log.WithField("frame", frame).Debug("frame already archived, keeping first snapshot")
	}
	return added
}

// Frames lists archived frame numbers in ascending order.
func (a *Aggregator) Frames() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int64, 0, len(a.archive.frames))
	for f := range a.archive.frames {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Frame returns a copy of the archived snapshot for frame n.
func (a *Aggregator) Frame(n int64) (FrameSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fs, ok := a.archive.frames[n]
	if !ok {
		return FrameSnapshot{}, false
	}
	fs.Reads = append([]uint64(nil), fs.Reads...)
	fs.Writes = append([]uint64(nil), fs.Writes...)
	return fs, true
}
