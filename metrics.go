package zarr

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of consolidation runs. A nil *Metrics
// records nothing.
type Metrics struct {
	NodesTotal          *prometheus.CounterVec
	DocumentsTotal      *prometheus.CounterVec
	UnreadableDirsTotal prometheus.Counter
	Duration            prometheus.Histogram
	ArtifactBytes       prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NodesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zarr_consolidate_nodes_total",
				Help: "Number of hierarchy nodes discovered, by kind",
			},
			[]string{"kind"},
		),
		DocumentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zarr_consolidate_documents_total",
				Help: "Number of metadata documents consolidated, by document name",
			},
			[]string{"document"},
		),
		UnreadableDirsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "zarr_consolidate_unreadable_dirs_total",
				Help: "Number of directories that could not be listed",
			},
		),
		Duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zarr_consolidate_duration_seconds",
				Help:    "Duration of successful consolidation runs in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
		),
		ArtifactBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "zarr_consolidate_artifact_bytes",
				Help: "Size of the last consolidated artifact written",
			},
		),
	}
}

func (m *Metrics) recordNode(n *Node) {
	if m == nil {
		return
	}
	m.NodesTotal.WithLabelValues(n.Kind.String()).Inc()
	m.DocumentsTotal.WithLabelValues(string(n.Kind.MetaType())).Inc()
	if n.Attrs != nil {
		m.DocumentsTotal.WithLabelValues(string(MTAttributes)).Inc()
	}
}

func (m *Metrics) recordUnreadableDir() {
	if m == nil {
		return
	}
	m.UnreadableDirsTotal.Inc()
}

func (m *Metrics) recordRun(d time.Duration, artifactBytes int) {
	if m == nil {
		return
	}
	m.Duration.Observe(d.Seconds())
	m.ArtifactBytes.Set(float64(artifactBytes))
}
