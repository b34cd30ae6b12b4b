package heatmap

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/trace"
)

// Policy decides how counters are re-derived when the view changes.
type Policy int

const (
	// PolicyHistory rebuilds the new window from a full-resolution backing
	// store, so zooming keeps (approximate) history.
	PolicyHistory Policy = iota
	// PolicyReset zero-fills the new window. Nothing before the zoom survives.
	PolicyReset
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "history":
		return PolicyHistory, nil
	case "reset":
		return PolicyReset, nil
	default:
		return PolicyHistory, fmt.Errorf("unknown zoom policy %q", value)
	}
}

func (p Policy) String() string {
	if p == PolicyReset {
		return "reset"
	}
	return "history"
}

// Options configure an Aggregator.
type Options struct {
	MemorySize   uint64
	Buckets      int
	Format       trace.Format
	Policy       Policy
	FrameHistory int // archived frames kept; <= 0 keeps all
	Logger       *logrus.Entry
}

// Totals are lifetime record counters.
type Totals struct {
	Records    uint64
	Reads      uint64
	Writes     uint64
	OutOfRange uint64
	Discarded  map[trace.Reason]uint64
}

// DiscardedTotal sums Discarded across reasons.
func (t Totals) DiscardedTotal() uint64 {
	var n uint64
	for _, c := range t.Discarded {
		n += c
	}
	return n
}

func (t Totals) clone() Totals {
	dup := t
	dup.Discarded = make(map[trace.Reason]uint64, len(t.Discarded))
	for k, v := range t.Discarded {
		dup.Discarded[k] = v
	}
	return dup
}

// IngestResult describes one Ingest call.
type IngestResult struct {
	Accepted   int
	OutOfRange int
	Discarded  map[trace.Reason]int
	Archived   []int64
}

// Aggregator buckets trace records into per-bucket read and write counters
// for the current view. It is safe for concurrent use.
type Aggregator struct {
	mu sync.Mutex

	memorySize   uint64
	format       trace.Format
	policy       Policy
	frameHistory int
	log          *logrus.Entry

	full   View
	view   View
	zooms  []View
	reads  []uint64
	writes []uint64
	seen   []uint64 // read+write per bucket at the last Delta call

	baseSize     uint64
	globalReads  []uint64
	globalWrites []uint64

	frame    int64
	hasFrame bool
	archive  *archive

	totals Totals
	epoch  uint64 // bumped on view change and reset
}

// New builds an Aggregator showing the whole address space.
func New(opts Options) (*Aggregator, error) {
	if opts.MemorySize == 0 {
		return nil, fmt.Errorf("memory size must be positive")
	}
	if opts.Buckets <= 0 {
		return nil, fmt.Errorf("bucket count must be positive, got %d", opts.Buckets)
	}
	if uint64(opts.Buckets) > opts.MemorySize {
		return nil, fmt.Errorf("bucket count %d exceeds memory size %d", opts.Buckets, opts.MemorySize)
	}
	full, err := NewView(0, opts.MemorySize-1, opts.Buckets, opts.MemorySize)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	a := &Aggregator{
		memorySize:   opts.MemorySize,
		format:       opts.Format,
		policy:       opts.Policy,
		frameHistory: opts.FrameHistory,
		log:          log,
		full:         full,
		view:         full,
		reads:        make([]uint64, opts.Buckets),
		writes:       make([]uint64, opts.Buckets),
		seen:         make([]uint64, opts.Buckets),
		archive:      newArchive(opts.FrameHistory),
		totals:       Totals{Discarded: map[trace.Reason]uint64{}},
	}
	if a.policy == PolicyHistory {
		a.baseSize = full.BucketSize()
		n := opts.MemorySize / a.baseSize
		a.globalReads = make([]uint64, n)
		a.globalWrites = make([]uint64, n)
	}
	return a, nil
}

// Policy reports the zoom policy in force.
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// MemorySize reports the size of the address space.
func (a *Aggregator) MemorySize() uint64 {
	return a.memorySize
}

// Epoch identifies the current counter lineage. It changes on every view
// change and reset, so a snapshot whose Epoch differs was taken of counters
// that no longer exist.
func (a *Aggregator) Epoch() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.epoch
}

// View returns the active window.
func (a *Aggregator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Ingest parses and counts lines. Malformed lines are dropped one by one;
// nothing in a batch can stop the rest of it from being counted.
func (a *Aggregator) Ingest(lines []string) IngestResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := IngestResult{Discarded: map[trace.Reason]int{}}
	for _, line := range lines {
		rec, err := trace.ParseLine(line, a.format)
		if err != nil {
			reason := trace.ReasonFieldCount
			var perr *trace.ParseError
			if errors.As(err, &perr) {
				reason = perr.Reason
			}
			res.Discarded[reason]++
			a.totals.Discarded[reason]++
			a.log.WithField("reason", reason).Debug(err.Error())
			continue
		}

		if rec.HasFrame {
			if a.hasFrame && rec.Frame != a.frame {
				if a.archiveFrameLocked(a.frame) {
					res.Archived = append(res.Archived, a.frame)
				}
			}
			a.frame = rec.Frame
			a.hasFrame = true
		}

		a.totals.Records++
		if rec.Kind == trace.Read {
			a.totals.Reads++
		} else {
			a.totals.Writes++
		}

		if rec.Address >= a.memorySize {
			res.OutOfRange++
			a.totals.OutOfRange++
			continue
		}
		a.countGlobalLocked(rec)

		idx, ok := a.view.Index(rec.Address)
		if !ok {
			res.OutOfRange++
			a.totals.OutOfRange++
			continue
		}
		if rec.Kind == trace.Read {
			a.reads[idx]++
		} else {
			a.writes[idx]++
		}
		res.Accepted++
	}
	return res
}

func (a *Aggregator) countGlobalLocked(rec trace.Record) {
	if a.policy != PolicyHistory {
		return
	}
	g := rec.Address / a.baseSize
	if last := uint64(len(a.globalReads) - 1); g > last {
		g = last
	}
	if rec.Kind == trace.Read {
		a.globalReads[g]++
	} else {
		a.globalWrites[g]++
	}
}

// SetView replaces the window and re-derives the counters under the
// configured policy. Setting the window already in force is a no-op.
func (a *Aggregator) SetView(start, end uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setViewLocked(start, end)
}

func (a *Aggregator) setViewLocked(start, end uint64) error {
	next, err := NewView(start, end, a.full.Buckets, a.memorySize)
	if err != nil {
		return err
	}
	if next != a.view {
		a.zooms = append(a.zooms, a.view)
	}
	a.applyViewLocked(next)
	return nil
}

// ZoomInto narrows the window to the range of bucket i.
func (a *Aggregator) ZoomInto(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	lo, hi, ok := a.view.BucketRange(i)
	if !ok {
		return fmt.Errorf("%w: bucket %d covers no addresses", ErrInvalidView, i)
	}
	return a.setViewLocked(lo, hi)
}

// ZoomOut returns to the window that was active before the last zoom, or
// to the full address space when there is none.
func (a *Aggregator) ZoomOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.full
	if n := len(a.zooms); n > 0 {
		next = a.zooms[n-1]
		a.zooms = a.zooms[:n-1]
	}
	a.applyViewLocked(next)
}

// ZoomReset returns to the full address space and forgets the zoom stack.
func (a *Aggregator) ZoomReset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.zooms = nil
	a.applyViewLocked(a.full)
}

// Pan shifts the window by n buckets, keeping its span, clamped to the
// address space.
func (a *Aggregator) Pan(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n == 0 || a.view == a.full {
		return nil
	}
	span := a.view.Span()
	step := a.view.BucketSize()
	start := a.view.Start
	if n < 0 {
		shift := uint64(-n) * step
		if shift > start {
			start = 0
		} else {
			start -= shift
		}
	} else {
		start += uint64(n) * step
		if maxStart := a.memorySize - span; start > maxStart {
			start = maxStart
		}
	}
	next, err := NewView(start, start+span-1, a.full.Buckets, a.memorySize)
	if err != nil {
		return err
	}
	a.applyViewLocked(next)
	return nil
}

func (a *Aggregator) applyViewLocked(next View) {
	if next == a.view {
		return
	}
	a.view = next
	a.epoch++
	a.rebuildLocked()
	a.log.WithFields(logrus.Fields{"view": next.String(), "policy": a.policy.String()}).Debug("view changed")
}

func (a *Aggregator) rebuildLocked() {
	clear(a.reads)
	clear(a.writes)
	if a.policy == PolicyHistory {
		first := a.view.Start / a.baseSize
		last := a.view.End / a.baseSize
		if maxG := uint64(len(a.globalReads) - 1); last > maxG {
			last = maxG
		}
		for g := first; g <= last; g++ {
			lo := g * a.baseSize
			if lo < a.view.Start {
				lo = a.view.Start
			}
			idx, ok := a.view.Index(lo)
			if !ok {
				continue
			}
			a.reads[idx] += a.globalReads[g]
			a.writes[idx] += a.globalWrites[g]
		}
	}
	a.markSeenLocked()
}

func (a *Aggregator) markSeenLocked() {
	for i := range a.seen {
		a.seen[i] = a.reads[i] + a.writes[i]
	}
}

// Reset zeroes the counters, the backing store and the frame archive
// without touching the view.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.reads)
	clear(a.writes)
	clear(a.seen)
	clear(a.globalReads)
	clear(a.globalWrites)
	a.archive = newArchive(a.frameHistory)
	a.hasFrame = false
	a.frame = 0
	a.totals = Totals{Discarded: map[trace.Reason]uint64{}}
	a.epoch++
	a.log.Debug("counters reset")
}

// Delta returns, per bucket, how much read+write grew since the previous
// Delta call (or since the last view change or reset).
func (a *Aggregator) Delta() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]uint64, len(a.reads))
	for i := range a.reads {
		total := a.reads[i] + a.writes[i]
		if total > a.seen[i] {
			out[i] = total - a.seen[i]
		}
		a.seen[i] = total
	}
	return out
}

// Snapshot copies the current aggregate.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		View:       a.view,
		Reads:      append([]uint64(nil), a.reads...),
		Writes:     append([]uint64(nil), a.writes...),
		MaxTotal:   maxTotal(a.reads, a.writes),
		Frame:      a.frame,
		HasFrame:   a.hasFrame,
		ZoomDepth:  len(a.zooms),
		Policy:     a.policy,
		MemorySize: a.memorySize,
		Totals:     a.totals.clone(),
		Epoch:      a.epoch,
	}
}

func maxTotal(reads, writes []uint64) uint64 {
	var best uint64 = 1
	for i := range reads {
		if t := reads[i] + writes[i]; t > best {
			best = t
		}
	}
	return best
}
