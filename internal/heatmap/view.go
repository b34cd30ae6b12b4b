package heatmap

import (
	"errors"
	"fmt"
)

// ErrInvalidView is returned for windows that break 0 <= start <= end < memory size.
var ErrInvalidView = errors.New("invalid view window")

// View is the visible address range and its bucket resolution.
type View struct {
	Start   uint64 // inclusive
	End     uint64 // inclusive
	Buckets int
}

// NewView validates a window against the address space.
func NewView(start, end uint64, buckets int, memorySize uint64) (View, error) {
	if buckets <= 0 {
		return View{}, fmt.Errorf("%w: bucket count %d", ErrInvalidView, buckets)
	}
	if memorySize == 0 {
		return View{}, fmt.Errorf("%w: empty address space", ErrInvalidView)
	}
	if start > end || end >= memorySize {
		return View{}, fmt.Errorf("%w: [%#x, %#x] outside [0, %#x)", ErrInvalidView, start, end, memorySize)
	}
	return View{Start: start, End: end, Buckets: buckets}, nil
}

// Span is the number of addresses in the window.
func (v View) Span() uint64 {
	return v.End - v.Start + 1
}

// BucketSize is max(1, span / buckets) using floor division.
func (v View) BucketSize() uint64 {
	if v.Buckets <= 0 {
		return 1
	}
	size := v.Span() / uint64(v.Buckets)
	if size < 1 {
		return 1
	}
	return size
}

// Index maps addr to its bucket. Addresses outside the window report false.
// The last bucket absorbs the floor-division remainder, so every address in
// [Start, End] lands in [0, Buckets). When the window is at least Buckets
// wide, End always lands in the last bucket. A narrower window maps End to
// bucket Span()-1 and leaves the buckets after it empty.
func (v View) Index(addr uint64) (int, bool) {
	if v.Buckets <= 0 || addr < v.Start || addr > v.End {
		return 0, false
	}
	last := v.Buckets - 1
	idx := (addr - v.Start) / v.BucketSize()
	if idx >= uint64(last) {
		return last, true
	}
	return int(idx), true
}

// BucketRange returns the inclusive address range bucket i covers. Buckets
// past the end of a window narrower than Buckets cover nothing.
func (v View) BucketRange(i int) (lo, hi uint64, ok bool) {
	if i < 0 || i >= v.Buckets {
		return 0, 0, false
	}
	size := v.BucketSize()
	lo = v.Start + uint64(i)*size
	if lo > v.End {
		return 0, 0, false
	}
	if i == v.Buckets-1 {
		return lo, v.End, true
	}
	hi = lo + size - 1
	if hi > v.End {
		hi = v.End
	}
	return lo, hi, true
}

func (v View) String() string {
	return fmt.Sprintf("%#x-%#x/%d", v.Start, v.End, v.Buckets)
}
