package prometheus

import (
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

// DefaultRetrievalDurationBuckets matches the shape of request latencies we
// expect for a store-bound retrieval call.
var DefaultRetrievalDurationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// RetrievalMetrics is the registered metric set for the retrieval engine,
// implementing orchestrator.MetricsCollector.
type RetrievalMetrics struct {
	retrievalDuration HistogramVec
	retrievalThin     CounterVec
	fallbackTotal     CounterVec
}

// NewRetrievalMetrics registers the retrieval metric set against c.
func NewRetrievalMetrics(c *Collector) *RetrievalMetrics {
	return &RetrievalMetrics{
		retrievalDuration: c.RegisterHistogram(
			"retrieval_duration_milliseconds",
			"Duration of a retrieval request in milliseconds, labeled by strategy.",
			DefaultRetrievalDurationBuckets,
			"strategy",
		),
		retrievalThin: c.RegisterCounter(
			"retrieval_thin_total",
			"Count of retrieval results flagged thin (below min_results_threshold).",
			"strategy",
		),
		fallbackTotal: c.RegisterCounter(
			"retrieval_fallback_total",
			"Count of fallback descents in the orchestrator's strategy ladder.",
			"from", "to",
		),
	}
}

// ObserveRetrieval implements orchestrator.MetricsCollector.
func (m *RetrievalMetrics) ObserveRetrieval(strategy graphmodel.Strategy, durationMs int64, thin bool) {
	m.retrievalDuration.WithLabelValues(string(strategy)).Observe(float64(durationMs))
	if thin {
		m.retrievalThin.WithLabelValues(string(strategy)).Inc()
	}
}

// IncFallback implements orchestrator.MetricsCollector.
func (m *RetrievalMetrics) IncFallback(fromStrategy, toStrategy string) {
	m.fallbackTotal.WithLabelValues(fromStrategy, toStrategy).Inc()
}
