// Package metrics provides Prometheus metrics for the import and export
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inkpress"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var (
	ImportFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Imported files by detected format and outcome",
		},
		[]string{"format", "status"},
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Time spent importing one file, including human decisions",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30, 120, 600},
		},
		[]string{"format"},
	)

	ExportTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "total",
			Help:      "Export runs by outcome",
		},
		[]string{"status"},
	)

	AssetsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "written_total",
			Help:      "Content-addressed asset files written",
		},
	)

	AssetsReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "reused_total",
			Help:      "Image references served from the per-export cache",
		},
	)

	DecisionsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decisions",
			Name:      "pending",
			Help:      "Human decisions waiting for an answer",
		},
	)
)

// RecordImport counts one finished import.
func RecordImport(format string, err error, seconds float64) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	if format == "" {
		format = "unknown"
	}
	ImportFilesTotal.WithLabelValues(format, status).Inc()
	ImportDuration.WithLabelValues(format).Observe(seconds)
}

// RecordExport counts one finished export run.
func RecordExport(err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	ExportTotal.WithLabelValues(status).Inc()
}
