package obs

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the viewer counters. Hot paths bump plain atomics,
// the prometheus registry reads them lazily on scrape.
type Metrics struct {
	// Stream ingest counters.
	FramesDecoded     atomic.Uint64
	FramesDropped     atomic.Uint64
	DetectionsKept    atomic.Uint64
	DetectionsDropped atomic.Uint64
	MessagesIgnored   atomic.Uint64

	// Render counters.
	RendersCompleted atomic.Uint64
	SnapshotsWritten atomic.Uint64

	// Connection counters.
	ConnectsOpened   atomic.Uint64
	RetriesScheduled atomic.Uint64
	TerminalFailures atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.register()

	return m
}

func (m *Metrics) register() {
	for _, g := range []struct {
		name string
		help string
		load func() uint64
	}{
		{"viewer_frames_decoded_total", "Total frames decoded and rendered", m.FramesDecoded.Load},
		{"viewer_frames_dropped_total", "Total frames dropped before render", m.FramesDropped.Load},
		{"viewer_detections_kept_total", "Total detection entries accepted", m.DetectionsKept.Load},
		{"viewer_detections_dropped_total", "Total detection entries rejected by validation", m.DetectionsDropped.Load},
		{"viewer_messages_ignored_total", "Total wire messages ignored as unknown or unparseable", m.MessagesIgnored.Load},
		{"viewer_renders_completed_total", "Total render passes completed", m.RendersCompleted.Load},
		{"viewer_snapshots_written_total", "Total snapshot images written to disk", m.SnapshotsWritten.Load},
		{"viewer_connects_opened_total", "Total websocket connections opened", m.ConnectsOpened.Load},
		{"viewer_retries_scheduled_total", "Total reconnect attempts scheduled", m.RetriesScheduled.Load},
		{"viewer_terminal_failures_total", "Total connections abandoned after exhausting retries", m.TerminalFailures.Load},
	} {
		load := g.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(load()) },
		))
	}
}

// Handler returns the /metrics scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
