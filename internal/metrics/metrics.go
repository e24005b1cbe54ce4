package metrics

import (
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"millermaps/internal/model"
)

// BuildMetrics holds the prometheus collectors for emitter runs.
type BuildMetrics struct {
	builds           *prometheus.CounterVec
	artifactsWritten *prometheus.CounterVec
	duration         prometheus.Histogram
	lastSuccess      prometheus.Gauge
}

// NewBuildMetrics creates the collectors and registers them on reg.
func NewBuildMetrics(reg prometheus.Registerer) (*BuildMetrics, error) {
	m := &BuildMetrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "millermaps_builds_total",
				Help: "Total number of site builds by outcome.",
			},
			[]string{"status"},
		),
		artifactsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "millermaps_artifacts_written_total",
				Help: "Total number of artifacts written by extension.",
			},
			[]string{"ext"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "millermaps_build_duration_seconds",
			Help:    "Wall time of a site build.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "millermaps_last_success_timestamp_seconds",
			Help: "Unix time of the last successful build.",
		}),
	}

	for _, c := range []prometheus.Collector{m.builds, m.artifactsWritten, m.duration, m.lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one run. res may be nil when the run failed before
// producing anything; artifacts of a failed run are not counted.
func (m *BuildMetrics) Observe(res *model.BuildResult, err error, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())

	if err != nil {
		m.builds.WithLabelValues(string(model.StatusFailure)).Inc()
		return
	}
	m.builds.WithLabelValues(string(model.StatusSuccess)).Inc()

	if res == nil {
		return
	}
	for _, a := range res.Artifacts {
		m.artifactsWritten.WithLabelValues(path.Ext(a.Path)).Inc()
	}
	if t, perr := res.Record.Time(); perr == nil {
		m.lastSuccess.Set(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
	}
}

// WriteTextfile writes everything g gathers to filename in the node_exporter
// textfile format. The write is atomic (temp file + rename).
func WriteTextfile(filename string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(filename, g)
}
