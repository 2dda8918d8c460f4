package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus instruments. A nil *Metrics is a
// valid no-op receiver so callers don't need to guard every observation.
type Metrics struct {
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	extractionRetries prometheus.Counter
}

// New registers the pipeline instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice_pipeline",
			Name:      "runs_total",
			Help:      "Pipeline invocations by envelope status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invoice_pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline duration per invoice.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		extractionRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "invoice_pipeline",
			Name:      "extraction_retries_total",
			Help:      "Enhanced-mode extraction retries after an empty first attempt.",
		}),
	}
}

// ObserveRun records one finished pipeline invocation.
func (m *Metrics) ObserveRun(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// IncExtractionRetry counts one fallback to enhanced extraction.
func (m *Metrics) IncExtractionRetry() {
	if m == nil {
		return
	}
	m.extractionRetries.Inc()
}
