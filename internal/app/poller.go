package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/logtail"
	"github.com/five82/memheat/internal/metrics"
	"github.com/five82/memheat/internal/state"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	maxBackoff          = 30 * time.Second
)

// poller moves new trace lines into the aggregator and publishes the result.
type poller struct {
	tailer  *logtail.Tailer
	agg     *heatmap.Aggregator
	store   *state.Store
	metrics *metrics.Metrics // optional
	log     *logrus.Entry

	failures int
}

// tick runs one Poll, Ingest, Snapshot, publish cycle and returns the number
// of consecutive failed cycles.
func (p *poller) tick() int {
	start := time.Now()

	lines := p.tailer.Poll()
	var res heatmap.IngestResult
	if len(lines) > 0 {
		res = p.agg.Ingest(lines)
		if len(res.Archived) > 0 {
			p.log.WithField("frames", res.Archived).Debug("frames archived")
		}
	}
	stats := p.tailer.Stats()
	snap := p.agg.Snapshot()

	if p.metrics != nil {
		p.metrics.ObserveTail(stats)
		p.metrics.ObserveIngest(res)
		p.metrics.SetMaxBucket(snap.MaxTotal)
		p.metrics.ObservePoll(time.Since(start))
	}

	if stats.LastError != nil {
		p.failures++
		p.store.Update(nil, stats, fmt.Errorf("tail trace: %w", stats.LastError))
		return p.failures
	}
	p.failures = 0
	p.store.Update(&snap, stats, nil)
	return 0
}

// startPoller launches a background goroutine that ticks p at interval,
// earlier when wake fires, and backs off while the trace is unreadable.
// It returns immediately; the returned channel closes once the goroutine
// has exited after ctx is cancelled.
func startPoller(ctx context.Context, p *poller, interval time.Duration, wake <-chan struct{}) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			failures := p.tick()
			if failures > 0 {
				p.log.WithField("failures", failures).Debug("trace unreadable, backing off")
			}
			timer.Reset(calculateBackoff(failures, interval))

			// File events are ignored while backing off.
			early := wake
			if failures > 0 {
				early = nil
			}
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			case <-early:
			}
		}
	}()
	return done
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// watchTrace signals on the returned channel whenever the trace file is
// written or created. Signals coalesce; a slow reader sees at most one.
func watchTrace(ctx context.Context, path string, log *logrus.Entry) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Clean(path)
	wake := make(chan struct{}, 1)
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("trace watcher error")
			}
		}
	}()
	return wake, nil
}
