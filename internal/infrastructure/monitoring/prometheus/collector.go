// Package prometheus adapts client_golang into a small registration
// facade, narrowed to the counters/histograms/gauges the retrieval engine
// actually emits.
package prometheus

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CounterVec wraps prometheus.CounterVec.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Counter wraps prometheus.Counter.
type Counter interface {
	Inc()
	Add(delta float64)
}

// GaugeVec wraps prometheus.GaugeVec.
type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

// Gauge wraps prometheus.Gauge.
type Gauge interface {
	Set(value float64)
}

// HistogramVec wraps prometheus.HistogramVec.
type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// Histogram wraps prometheus.Histogram.
type Histogram interface {
	Observe(value float64)
}

// CollectorConfig configures the underlying registry.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

// Collector registers and exposes metrics.
type Collector struct {
	registry          *prometheus.Registry
	config            CollectorConfig
	mu                sync.RWMutex
	registeredMetrics map[string]prometheus.Collector
}

// NewCollector constructs a Collector. Namespace is required.
func NewCollector(cfg CollectorConfig) (*Collector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("prometheus: namespace is required")
	}
	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}
	return &Collector{
		registry:          registry,
		config:            cfg,
		registeredMetrics: make(map[string]prometheus.Collector),
	}, nil
}

// Handler exposes the registry over HTTP for /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *Collector) register(name string, newCollector prometheus.Collector) prometheus.Collector {
	c.mu.Lock()
	defer c.mu.Unlock()

	fullName := prometheus.BuildFQName(c.config.Namespace, c.config.Subsystem, name)
	if existing, exists := c.registeredMetrics[fullName]; exists {
		return existing
	}
	c.registry.MustRegister(newCollector)
	c.registeredMetrics[fullName] = newCollector
	return newCollector
}

// RegisterCounter registers (or returns an already-registered) counter
// vector.
func (c *Collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	return counterVecAdapter{c.register(name, vec).(*prometheus.CounterVec)}
}

// RegisterGauge registers (or returns an already-registered) gauge vector.
func (c *Collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, labels)
	return gaugeVecAdapter{c.register(name, vec).(*prometheus.GaugeVec)}
}

// RegisterHistogram registers (or returns an already-registered) histogram
// vector.
func (c *Collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	return histogramVecAdapter{c.register(name, vec).(*prometheus.HistogramVec)}
}

type counterVecAdapter struct{ vec *prometheus.CounterVec }

func (a counterVecAdapter) WithLabelValues(lvs ...string) Counter { return a.vec.WithLabelValues(lvs...) }

type gaugeVecAdapter struct{ vec *prometheus.GaugeVec }

func (a gaugeVecAdapter) WithLabelValues(lvs ...string) Gauge { return a.vec.WithLabelValues(lvs...) }

type histogramVecAdapter struct{ vec *prometheus.HistogramVec }

func (a histogramVecAdapter) WithLabelValues(lvs ...string) Histogram {
	return a.vec.WithLabelValues(lvs...)
}
