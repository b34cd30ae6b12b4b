package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/five82/memheat/internal/heatmap"
	"github.com/five82/memheat/internal/logtail"
)

// Metrics holds the collectors for one aggregator and tailer pair.
type Metrics struct {
	reg *prometheus.Registry

	lines        prometheus.Counter
	discarded    *prometheus.CounterVec
	outOfRange   prometheus.Counter
	rotations    prometheus.Counter
	pollErrors   prometheus.Counter
	pollDuration prometheus.Histogram
	maxBucket    prometheus.Gauge

	mu   sync.Mutex
	last logtail.Stats
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		lines: f.NewCounter(prometheus.CounterOpts{
			Name: "memheat_lines_total",
			Help: "Complete trace lines read from the log",
		}),
		discarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "memheat_records_discarded_total",
			Help: "Trace lines dropped as malformed, by reason",
		}, []string{"reason"}),
		outOfRange: f.NewCounter(prometheus.CounterOpts{
			Name: "memheat_records_out_of_range_total",
			Help: "Well-formed records outside the address space or view",
		}),
		rotations: f.NewCounter(prometheus.CounterOpts{
			Name: "memheat_rotations_total",
			Help: "Times the trace shrank and the cursor was rewound",
		}),
		pollErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "memheat_poll_errors_total",
			Help: "Trace I/O failures",
		}),
		pollDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "memheat_poll_duration_seconds",
			Help:    "Duration of one poll and ingest cycle",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		maxBucket: f.NewGauge(prometheus.GaugeOpts{
			Name: "memheat_max_bucket_total",
			Help: "Largest read+write count of any visible bucket",
		}),
	}
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveTail adds the growth of the tailer's cumulative counters since the
// previous call. A tailer whose counters went backwards is treated as new.
func (m *Metrics) ObserveTail(stats logtail.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines.Add(float64(growth(m.last.Lines, stats.Lines)))
	m.rotations.Add(float64(growth(m.last.Rotations, stats.Rotations)))
	m.pollErrors.Add(float64(growth(m.last.Errors, stats.Errors)))
	m.last = stats
}

func growth(prev, cur uint64) uint64 {
	if cur < prev {
		return cur
	}
	return cur - prev
}

// ObserveIngest records the outcome of one Ingest call.
func (m *Metrics) ObserveIngest(res heatmap.IngestResult) {
	for reason, n := range res.Discarded {
		m.discarded.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.outOfRange.Add(float64(res.OutOfRange))
}

// ObservePoll records how long a poll cycle took.
func (m *Metrics) ObservePoll(d time.Duration) {
	m.pollDuration.Observe(d.Seconds())
}

// SetMaxBucket publishes the busiest bucket of the latest snapshot.
func (m *Metrics) SetMaxBucket(v uint64) {
	m.maxBucket.Set(float64(v))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, log *logrus.Entry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	return serve(ctx, ln, m, log)
}

func serve(ctx context.Context, ln net.Listener, m *Metrics, log *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if log != nil {
		log.WithField("addr", ln.Addr().String()).Info("serving metrics")
	}
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
