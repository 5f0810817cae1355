// Package metrics records per-job outcomes as Prometheus series. A
// Recorder is itself a processor.Sink, and can dump its registry in the
// node-exporter textfile format at the end of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"pixpress/internal/processor"
)

type Recorder struct {
	registry *prometheus.Registry
	jobs     *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	dropped  prometheus.Counter
	duration prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixpress",
			Name:      "jobs_total",
			Help:      "Compression jobs by outcome.",
		}, []string{"status"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pixpress",
			Name:      "bytes_total",
			Help:      "Bytes read from inputs and written to outputs of successful jobs.",
		}, []string{"direction"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pixpress",
			Name:      "metadata_entries_dropped_total",
			Help:      "Metadata entries removed by stripping.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pixpress",
			Name:      "job_duration_seconds",
			Help:      "Wall time spent on each job.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	r.registry.MustRegister(r.jobs, r.bytes, r.dropped, r.duration)

	for _, s := range []processor.Status{processor.StatusSuccess, processor.StatusSkipped, processor.StatusFailed} {
		r.jobs.WithLabelValues(s.String())
	}
	return r
}

func (r *Recorder) Emit(res processor.Result) {
	r.jobs.WithLabelValues(res.Status.String()).Inc()
	r.duration.Observe(res.Duration.Seconds())
	if res.Status != processor.StatusSuccess {
		return
	}
	r.bytes.WithLabelValues("in").Add(float64(res.InputSize))
	r.bytes.WithLabelValues("out").Add(float64(res.OutputSize))
	r.dropped.Add(float64(res.MetadataDropped))
}

// WriteTextfile atomically writes every series to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
