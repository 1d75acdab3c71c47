// Package metrics records build outcomes in the Prometheus textfile format,
// for node_exporter style collection of scheduled builds.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "passdown"

// Build holds the metrics of a single build run.
type Build struct {
	registry *prometheus.Registry

	decoded  prometheus.Counter
	skipped  prometheus.Counter
	duration prometheus.Gauge
	finished prometheus.Gauge
	rejects  *prometheus.GaugeVec
}

// NewBuild registers the build metrics on a private registry.
func NewBuild() *Build {
	b := &Build{
		registry: prometheus.NewRegistry(),
		decoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_decoded_total",
			Help:      "Report pairs decoded into observations.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_skipped_total",
			Help:      "Report pairs skipped because a file was missing.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of the last build.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_last_success_timestamp_seconds",
			Help:      "Unix time the last build finished.",
		}),
		rejects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rejects",
			Help:      "Rejects per category summed over the built dataset.",
		}, []string{"category"}),
	}
	b.registry.MustRegister(b.decoded, b.skipped, b.duration, b.finished, b.rejects)
	return b
}

// Observe records the outcome of a build.
func (b *Build) Observe(decoded, skipped int, elapsed time.Duration, finished time.Time) {
	b.decoded.Add(float64(decoded))
	b.skipped.Add(float64(skipped))
	b.duration.Set(elapsed.Seconds())
	b.finished.Set(float64(finished.Unix()))
}

// SetRejects records the reject total of a category.
func (b *Build) SetRejects(category string, total int) {
	b.rejects.WithLabelValues(category).Set(float64(total))
}

// WriteTextfile writes the metrics to path atomically.
func (b *Build) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, b.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
