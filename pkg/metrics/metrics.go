// Package metrics exposes Prometheus collectors describing heatmap runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the run collectors. The zero value is not usable; create one
// with New. A nil *Recorder is valid and records nothing.
type Recorder struct {
	runs       *prometheus.CounterVec
	masks      *prometheus.CounterVec
	duration   prometheus.Histogram
	progress   prometheus.Gauge
	activeRuns prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is handy in tests.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maskheatmap",
			Name:      "runs_total",
			Help:      "Heatmap runs by terminal status.",
		}, []string{"status"}),
		masks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maskheatmap",
			Name:      "masks_total",
			Help:      "Masks visited by heatmap runs, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "maskheatmap",
			Name:      "run_duration_seconds",
			Help:      "Wall time of heatmap runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "maskheatmap",
			Name:      "run_progress_percent",
			Help:      "Progress of the current heatmap run.",
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "maskheatmap",
			Name:      "active_runs",
			Help:      "Number of heatmap runs in flight (0 or 1).",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.runs, r.masks, r.duration, r.progress, r.activeRuns)
	}
	return r
}

// RunStarted marks a run as in flight
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.activeRuns.Set(1)
	r.progress.Set(0)
}

// Progress records the current percent of the active run
func (r *Recorder) Progress(percent int) {
	if r == nil {
		return
	}
	r.progress.Set(float64(percent))
}

// RunFinished records the outcome of a run
func (r *Recorder) RunFinished(status string, contributed, skipped int, seconds float64) {
	if r == nil {
		return
	}
	r.activeRuns.Set(0)
	r.runs.WithLabelValues(status).Inc()
	r.masks.WithLabelValues("contributed").Add(float64(contributed))
	r.masks.WithLabelValues("skipped").Add(float64(skipped))
	r.duration.Observe(seconds)
}
