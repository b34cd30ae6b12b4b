package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/logtail"
	"github.com/five82/memheat/internal/metrics"
	"github.com/five82/memheat/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 100 * time.Millisecond
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func newTestPoller(t *testing.T, src logtail.Source) *poller {
	t.Helper()
	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)
	agg, err := heatmap.New(heatmap.Options{MemorySize: 1000, Buckets: 10, Logger: log})
	if err != nil {
		t.Fatalf("heatmap.New: %v", err)
	}
	return &poller{
		tailer:  logtail.New(src, logtail.WithLogger(log)),
		agg:     agg,
		store:   &state.Store{},
		metrics: metrics.New(),
		log:     log,
	}
}

func TestTick_PublishesHeat(t *testing.T) {
	src := logtail.NewMemSource("read,0000000A,_,00\nwrite,000000C8,_,00\n")
	p := newTestPoller(t, src)

	if failures := p.tick(); failures != 0 {
		t.Fatalf("tick failures = %d, want 0", failures)
	}
	snap := p.store.Snapshot()
	if !snap.HasHeat {
		t.Fatalf("expected heat in store")
	}
	if snap.Heat.Reads[0] != 1 || snap.Heat.Writes[2] != 1 {
		t.Fatalf("heat = %v / %v", snap.Heat.Reads, snap.Heat.Writes)
	}
	if snap.Tail.Lines != 2 {
		t.Fatalf("Tail.Lines = %d, want 2", snap.Tail.Lines)
	}

	src.Append("read,0000000B,_,00\n")
	p.tick()
	if got := p.store.Snapshot().Heat.Reads[0]; got != 2 {
		t.Fatalf("Reads[0] = %d, want 2", got)
	}
}

func TestTick_FailuresKeepLastHeat(t *testing.T) {
	src := logtail.NewMemSource("read,0000000A,_,00\n")
	p := newTestPoller(t, src)
	p.tick()

	src.Fail(errors.New("disk gone"))
	if failures := p.tick(); failures != 1 {
		t.Fatalf("failures = %d, want 1", failures)
	}
	if failures := p.tick(); failures != 2 {
		t.Fatalf("failures = %d, want 2", failures)
	}
	snap := p.store.Snapshot()
	if !snap.IsStalled() {
		t.Fatalf("expected stalled after two failures")
	}
	if snap.LastError == nil || !strings.Contains(snap.LastError.Error(), "disk gone") {
		t.Fatalf("LastError = %v, want disk gone", snap.LastError)
	}
	if !snap.HasHeat || snap.Heat.Reads[0] != 1 {
		t.Fatalf("previous heat lost: %+v", snap.Heat.Reads)
	}

	src.Fail(nil)
	if failures := p.tick(); failures != 0 {
		t.Fatalf("failures after recovery = %d, want 0", failures)
	}
	if p.store.Snapshot().LastError != nil {
		t.Fatalf("error not cleared after recovery")
	}
}

func TestTick_MissingTraceIsNotAFailure(t *testing.T) {
	src := logtail.NewMemSource("")
	src.Remove()
	p := newTestPoller(t, src)
	if failures := p.tick(); failures != 0 {
		t.Fatalf("failures = %d, want 0", failures)
	}
	if !p.store.Snapshot().HasHeat {
		t.Fatalf("expected an empty heatmap to be published")
	}
}

func TestStartPoller_TicksUntilCancelled(t *testing.T) {
	src := logtail.NewMemSource("")
	p := newTestPoller(t, src)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wake := make(chan struct{}, 1)
	done := startPoller(ctx, p, time.Hour, wake)

	src.Append("read,0000000A,_,00\n")
	wake <- struct{}{}

	deadline := time.After(2 * time.Second)
	for picked := false; !picked; {
		if snap := p.store.Snapshot(); snap.HasHeat && snap.Heat.Reads[0] == 1 {
			picked = true
			continue
		}
		select {
		case <-deadline:
			t.Fatalf("poller did not pick up the appended line")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poller still running after cancel")
	}
}

func TestWatchTrace_SignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory_access.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger, _ := test.NewNullLogger()
	wake, err := watchTrace(ctx, path, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("watchTrace: %v", err)
	}

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.log"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.WriteFile(path, []byte("read,0000000A,_,00\n"), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	select {
	case <-wake:
	case <-time.After(2 * time.Second):
		t.Fatalf("no wake-up after writing the trace")
	}
}

func TestWatchTrace_MissingDirectory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := watchTrace(context.Background(), filepath.Join(t.TempDir(), "nope", "trace.log"), logrus.NewEntry(logger))
	if err == nil {
		t.Fatalf("expected error for a missing directory")
	}
}
