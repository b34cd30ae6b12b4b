package heatmap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/memheat/internal/trace"
)

func newAgg(t *testing.T, memory uint64, buckets int, policy Policy) *Aggregator {
	t.Helper()
	a, err := New(Options{MemorySize: memory, Buckets: buckets, Policy: policy})
	require.NoError(t, err)
	return a
}

func legacy(kind string, addr uint64) string {
	return fmt.Sprintf("%s,%08X,_,00", kind, addr)
}

func TestNew_RejectsBadConfiguration(t *testing.T) {
	_, err := New(Options{MemorySize: 0, Buckets: 10})
	assert.Error(t, err)
	_, err = New(Options{MemorySize: 100, Buckets: 0})
	assert.Error(t, err)
	_, err = New(Options{MemorySize: 100, Buckets: -3})
	assert.Error(t, err)
	_, err = New(Options{MemorySize: 10, Buckets: 11})
	assert.Error(t, err, "bucket count larger than memory gives a zero bucket size")
}

func TestIngest_LegacyScenario(t *testing.T) {
	a := newAgg(t, 256*1024, 100, PolicyHistory)

	res := a.Ingest([]string{"read,000000FF,_,0A", "write,00000100,_,FF", "bogus,line"})
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Discarded[trace.ReasonFieldCount])

	snap := a.Snapshot()
	readIdx, ok := snap.View.Index(0xFF)
	require.True(t, ok)
	writeIdx, ok := snap.View.Index(0x100)
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Reads[readIdx])
	assert.Equal(t, uint64(1), snap.Writes[writeIdx])

	// 0xFF and 0x100 share bucket 0 (bucket size 2621), so the busiest
	// bucket holds one read and one write.
	assert.Equal(t, readIdx, writeIdx)
	assert.Equal(t, uint64(2), snap.MaxTotal)

	var others uint64
	for i := range snap.Reads {
		if i != readIdx {
			others += snap.Total(i)
		}
	}
	assert.Zero(t, others)
}

func TestIngest_WindowEdges(t *testing.T) {
	a := newAgg(t, 4096, 10, PolicyReset)
	require.NoError(t, a.SetView(0, 999))

	v := a.View()
	assert.Equal(t, uint64(100), v.BucketSize())
	idx, ok := v.Index(999)
	require.True(t, ok)
	assert.Equal(t, 9, idx)
	_, ok = v.Index(1000)
	assert.False(t, ok)

	res := a.Ingest([]string{legacy("read", 1000)})
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, 1, res.OutOfRange)
	snap := a.Snapshot()
	for i := range snap.Reads {
		assert.Zero(t, snap.Total(i))
	}

	a.Ingest([]string{legacy("write", 999)})
	snap = a.Snapshot()
	assert.Equal(t, uint64(1), snap.Writes[9])
}

func TestView_EveryAddressHasOneBucket(t *testing.T) {
	cases := []struct {
		start, end uint64
		buckets    int
	}{
		{0, 999, 10},
		{0, 1049, 10},
		{5, 23, 10},
		{100, 104, 10},
		{7, 7, 3},
		{0, 2620, 100},
		{1234, 5678, 7},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d-%d/%d", c.start, c.end, c.buckets), func(t *testing.T) {
			v, err := NewView(c.start, c.end, c.buckets, 1<<20)
			require.NoError(t, err)
			prev := 0
			for addr := c.start; addr <= c.end; addr++ {
				idx, ok := v.Index(addr)
				require.True(t, ok, "addr %d", addr)
				require.GreaterOrEqual(t, idx, 0)
				require.Less(t, idx, c.buckets)
				require.GreaterOrEqual(t, idx, prev, "indices are monotonic")
				prev = idx

				lo, hi, ok := v.BucketRange(idx)
				require.True(t, ok)
				require.True(t, addr >= lo && addr <= hi, "addr %d outside bucket %d range [%d,%d]", addr, idx, lo, hi)
			}
			want := c.buckets - 1
			if span := c.end - c.start + 1; span < uint64(c.buckets) {
				want = int(span) - 1
			}
			idx, _ := v.Index(c.end)
			assert.Equal(t, want, idx)
			if c.start > 0 {
				_, ok := v.Index(c.start - 1)
				assert.False(t, ok)
			}
			_, ok := v.Index(c.end + 1)
			assert.False(t, ok)
		})
	}
}

func TestNewView_Validates(t *testing.T) {
	_, err := NewView(10, 5, 4, 100)
	assert.ErrorIs(t, err, ErrInvalidView)
	_, err = NewView(0, 100, 4, 100)
	assert.ErrorIs(t, err, ErrInvalidView)
	_, err = NewView(0, 10, 0, 100)
	assert.ErrorIs(t, err, ErrInvalidView)
}

func TestIngest_DiscardAndContinue(t *testing.T) {
	a := newAgg(t, 1024, 4, PolicyHistory)
	res := a.Ingest([]string{
		legacy("read", 10),
		"read,not-hex,_,00",
		legacy("write", 700),
	})
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Discarded[trace.ReasonAddress])

	snap := a.Snapshot()
	assert.Equal(t, uint64(1), snap.Reads[0])
	assert.Equal(t, uint64(1), snap.Writes[2])
	assert.Equal(t, uint64(2), snap.Totals.Records)
	assert.Equal(t, uint64(1), snap.Totals.DiscardedTotal())
}

func TestIngest_UnknownKindIsDiscarded(t *testing.T) {
	a := newAgg(t, 1024, 4, PolicyReset)
	res := a.Ingest([]string{"fetch,10,_,00", legacy("read", 10)})
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 1, res.Discarded[trace.ReasonKind])
}

func TestIngest_AddressBeyondMemoryIsSkipped(t *testing.T) {
	a := newAgg(t, 1024, 4, PolicyHistory)
	res := a.Ingest([]string{legacy("read", 1024), legacy("read", 1<<40)})
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, 2, res.OutOfRange)
}

func TestSetView_Idempotent(t *testing.T) {
	for _, policy := range []Policy{PolicyHistory, PolicyReset} {
		t.Run(policy.String(), func(t *testing.T) {
			a := newAgg(t, 1000, 10, policy)
			a.Ingest([]string{legacy("read", 5), legacy("read", 150), legacy("write", 420)})

			require.NoError(t, a.SetView(100, 499))
			first := a.Snapshot()
			require.NoError(t, a.SetView(100, 499))
			second := a.Snapshot()

			assert.Equal(t, first.Reads, second.Reads)
			assert.Equal(t, first.Writes, second.Writes)
			assert.Equal(t, first.View, second.View)
			assert.Equal(t, 1, second.ZoomDepth)
		})
	}
}

func TestSetView_HistoryPolicyRebuildsFromBackingStore(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyHistory)
	a.Ingest([]string{
		legacy("read", 5),
		legacy("read", 150),
		legacy("read", 199),
		legacy("write", 420),
		legacy("write", 999),
	})
	before := a.Snapshot()

	require.NoError(t, a.SetView(100, 499))
	zoomed := a.Snapshot()
	assert.Equal(t, uint64(40), zoomed.View.BucketSize())
	// Backing slots are 100 wide; slot 1 (100-199) lands in the bucket of
	// address 100, slot 4 (400-499) in the bucket of address 400.
	assert.Equal(t, uint64(2), zoomed.Reads[0])
	assert.Equal(t, uint64(1), zoomed.Writes[7])
	assert.Equal(t, uint64(3), sum(zoomed.Reads)+sum(zoomed.Writes))

	a.Ingest([]string{legacy("read", 300)})
	zoomed = a.Snapshot()
	assert.Equal(t, uint64(1), zoomed.Reads[5])

	a.ZoomOut()
	after := a.Snapshot()
	assert.Equal(t, before.View, after.View)
	expected := append([]uint64(nil), before.Reads...)
	expected[3]++
	assert.Equal(t, expected, after.Reads)
	assert.Equal(t, before.Writes, after.Writes)
}

func TestSetView_ResetPolicyZeroFills(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyReset)
	a.Ingest([]string{legacy("read", 150), legacy("write", 420)})

	require.NoError(t, a.SetView(100, 499))
	snap := a.Snapshot()
	assert.Zero(t, sum(snap.Reads)+sum(snap.Writes))
	assert.Equal(t, uint64(1), snap.MaxTotal, "MaxTotal never drops below 1")

	a.ZoomOut()
	snap = a.Snapshot()
	assert.Zero(t, sum(snap.Reads)+sum(snap.Writes))
}

func TestZoomInto_AndZoomStack(t *testing.T) {
	a := newAgg(t, 1<<20, 16, PolicyHistory)

	require.NoError(t, a.ZoomInto(3))
	v := a.View()
	assert.Equal(t, uint64(3*65536), v.Start)
	assert.Equal(t, uint64(4*65536-1), v.End)

	require.NoError(t, a.ZoomInto(15))
	v2 := a.View()
	assert.Equal(t, v.End, v2.End)

	a.ZoomOut()
	assert.Equal(t, v, a.View())
	a.ZoomOut()
	assert.Equal(t, uint64(0), a.View().Start)
	assert.Equal(t, uint64(1<<20-1), a.View().End)
	a.ZoomOut()
	assert.Equal(t, uint64(1<<20-1), a.View().End)
}

func TestZoomInto_TinyWindows(t *testing.T) {
	a := newAgg(t, 64, 8, PolicyReset)
	require.NoError(t, a.ZoomInto(1)) // 8..15
	require.NoError(t, a.ZoomInto(2)) // bucket size 1 -> 10..10
	v := a.View()
	assert.Equal(t, uint64(10), v.Start)
	assert.Equal(t, uint64(10), v.End)

	err := a.ZoomInto(5)
	assert.ErrorIs(t, err, ErrInvalidView)

	a.Ingest([]string{legacy("read", 10), legacy("read", 11)})
	snap := a.Snapshot()
	assert.Equal(t, uint64(1), snap.Reads[0])
	assert.Equal(t, uint64(1), snap.Totals.OutOfRange)
}

func TestZoomReset(t *testing.T) {
	a := newAgg(t, 1024, 4, PolicyHistory)
	require.NoError(t, a.ZoomInto(1))
	require.NoError(t, a.ZoomInto(1))
	a.ZoomReset()
	snap := a.Snapshot()
	assert.False(t, snap.Zoomed())
	assert.Equal(t, 0, snap.ZoomDepth)
}

func TestPan_ClampsToAddressSpace(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyReset)
	require.NoError(t, a.Pan(3), "panning the full view is a no-op")
	assert.Equal(t, uint64(0), a.View().Start)

	require.NoError(t, a.SetView(100, 199))
	require.NoError(t, a.Pan(-2))
	assert.Equal(t, uint64(80), a.View().Start)
	require.NoError(t, a.Pan(-100))
	assert.Equal(t, uint64(0), a.View().Start)
	assert.Equal(t, uint64(99), a.View().End)
	require.NoError(t, a.Pan(1000))
	assert.Equal(t, uint64(900), a.View().Start)
	assert.Equal(t, uint64(999), a.View().End)
}

func TestReset_KeepsView(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyHistory)
	require.NoError(t, a.SetView(0, 499))
	a.Ingest([]string{legacy("read", 10), "1,R,10,0,a,b,c", "2,R,10,0,a,b,c"})
	require.NotEmpty(t, a.Frames())

	a.Reset()
	snap := a.Snapshot()
	assert.Equal(t, uint64(499), snap.View.End)
	assert.Zero(t, sum(snap.Reads)+sum(snap.Writes))
	assert.Empty(t, a.Frames())
	assert.Zero(t, snap.Totals.Records)

	a.ZoomOut()
	snap = a.Snapshot()
	assert.Zero(t, sum(snap.Reads)+sum(snap.Writes), "backing store is cleared too")
}

func TestSnapshot_DoesNotAliasLiveState(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyHistory)
	a.Ingest([]string{legacy("read", 10)})
	snap := a.Snapshot()
	snap.Reads[0] = 99
	snap.Totals.Discarded[trace.ReasonKind] = 7

	a.Ingest([]string{legacy("read", 10)})
	assert.Equal(t, uint64(99), snap.Reads[0])
	fresh := a.Snapshot()
	assert.Equal(t, uint64(2), fresh.Reads[0])
	assert.Zero(t, fresh.Totals.Discarded[trace.ReasonKind])
}

func TestIngest_ArchivesFramesOnChange(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyHistory)
	res := a.Ingest([]string{
		"1,R,0A,0,a,b,c",
		"1,W,0B,0,a,b,c",
		"2,R,C8,0,a,b,c",
	})
	assert.Equal(t, []int64{1}, res.Archived)
	assert.Equal(t, []int64{1}, a.Frames())

	fs, ok := a.Frame(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), fs.Reads[0])
	assert.Equal(t, uint64(1), fs.Writes[0])
	assert.Zero(t, fs.Reads[2])

	a.Ingest([]string{"2,R,0A,0,a,b,c", "3,R,0A,0,a,b,c"})
	assert.Equal(t, []int64{1, 2}, a.Frames())

	again, _ := a.Frame(1)
	assert.Equal(t, fs.Reads, again.Reads, "archived frames never change")
	two, _ := a.Frame(2)
	assert.Equal(t, uint64(2), two.Reads[0], "counters accumulate across frames")
	assert.Equal(t, uint64(1), two.Reads[2])

	snap := a.Snapshot()
	assert.True(t, snap.HasFrame)
	assert.Equal(t, int64(3), snap.Frame)

	_, ok = a.Frame(42)
	assert.False(t, ok)
}

func TestArchive_BoundedAndFirstWins(t *testing.T) {
	a, err := New(Options{MemorySize: 1000, Buckets: 10, FrameHistory: 2})
	require.NoError(t, err)
	a.Ingest([]string{"1,R,0,0,a,b,c", "2,R,0,0,a,b,c", "3,R,0,0,a,b,c", "4,R,0,0,a,b,c"})
	assert.Equal(t, []int64{2, 3}, a.Frames())

	_, ok := a.Frame(1)
	assert.False(t, ok, "oldest frame is dropped")

	b, err := New(Options{MemorySize: 1000, Buckets: 10})
	require.NoError(t, err)
	b.Ingest([]string{"1,R,0,0,a,b,c", "2,R,0,0,a,b,c", "1,R,0,0,a,b,c", "3,R,0,0,a,b,c"})
	one, ok := b.Frame(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), one.Reads[0], "first archive of a frame wins")
}

func TestDelta(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyHistory)
	a.Ingest([]string{legacy("read", 10), legacy("write", 10), legacy("read", 500)})

	d := a.Delta()
	assert.Equal(t, uint64(2), d[0])
	assert.Equal(t, uint64(1), d[5])

	assert.Zero(t, sum(a.Delta()), "no new traffic since last query")

	a.Ingest([]string{legacy("read", 999)})
	d = a.Delta()
	assert.Equal(t, uint64(1), d[9])
	assert.Equal(t, uint64(1), sum(d))

	require.NoError(t, a.SetView(0, 99))
	assert.Zero(t, sum(a.Delta()), "view change re-baselines")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyHistory, p)
	p, err = ParsePolicy("Reset")
	require.NoError(t, err)
	assert.Equal(t, PolicyReset, p)
	_, err = ParsePolicy("keep")
	assert.Error(t, err)
}

func sum(xs []uint64) uint64 {
	var n uint64
	for _, x := range xs {
		n += x
	}
	return n
}

func TestEpoch_ChangesOnViewChangeAndReset(t *testing.T) {
	a := newAgg(t, 1000, 10, PolicyHistory)
	start := a.Snapshot().Epoch
	assert.Equal(t, start, a.Epoch())

	a.Ingest([]string{legacy("read", 5)})
	assert.Equal(t, start, a.Epoch(), "ingesting continues the same counters")

	require.NoError(t, a.SetView(0, 99))
	zoomed := a.Epoch()
	assert.NotEqual(t, start, zoomed)

	require.NoError(t, a.SetView(0, 99))
	assert.Equal(t, zoomed, a.Epoch(), "identical view is a no-op")

	a.Reset()
	assert.NotEqual(t, zoomed, a.Epoch())
	assert.Equal(t, a.Epoch(), a.Snapshot().Epoch)
}
