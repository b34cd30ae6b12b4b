package heatmap

// Snapshot is an immutable copy of the aggregate. Holding one never blocks
// or observes later ingestion.
type Snapshot struct {
	View       View
	Reads      []uint64
	Writes     []uint64
	MaxTotal   uint64 // largest read+write of any bucket, at least 1
	Frame      int64
	HasFrame   bool
	ZoomDepth  int
	Policy     Policy
	MemorySize uint64
	Totals     Totals
	Epoch      uint64 // see Aggregator.Epoch
}

// Total returns read+write for bucket i, or 0 when i is out of range.
func (s Snapshot) Total(i int) uint64 {
	if i < 0 || i >= len(s.Reads) || i >= len(s.Writes) {
		return 0
	}
	return s.Reads[i] + s.Writes[i]
}

// Zoomed reports whether the view is narrower than the address space.
func (s Snapshot) Zoomed() bool {
	return s.MemorySize > 0 && (s.View.Start != 0 || s.View.End != s.MemorySize-1)
}

// FromFrame presents an archived frame as a Snapshot for rendering.
func FromFrame(fs FrameSnapshot, memorySize uint64) Snapshot {
	return Snapshot{
		View:       fs.View,
		Reads:      fs.Reads,
		Writes:     fs.Writes,
		MaxTotal:   fs.MaxTotal,
		Frame:      fs.Frame,
		HasFrame:   true,
		MemorySize: memorySize,
	}
}
