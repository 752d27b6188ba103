// Package metrics records Prometheus metrics for blob operations.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
)

const namespace = "blobstore"

// Directions for transferred bytes.
const (
	Upload   = "upload"
	Download = "download"
)

// Metrics is a set of collectors for one client. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	pages       *prometheus.CounterVec
	pageEntries *prometheus.HistogramVec
	handles     prometheus.Gauge
	bytes       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of blob operations by result",
			},
			[]string{"operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of blob operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "list_pages_total",
				Help:      "Total number of listing pages fetched",
			},
			[]string{"container"},
		),
		pageEntries: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "list_page_entries",
				Help:      "Number of entries per listing page",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
			},
			[]string{"container"},
		),
		handles: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connection_handles",
				Help:      "Number of cached connection handles",
			},
		),
		bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transferred_bytes_total",
				Help:      "Total bytes transferred by direction",
			},
			[]string{"direction"},
		),
	}
}

// Observe records the outcome and duration of an operation started at start.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Result(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObservePage records one fetched listing page.
func (m *Metrics) ObservePage(container string, entries int) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(container).Inc()
	m.pageEntries.WithLabelValues(container).Observe(float64(entries))
}

// HandleCreated records a new cached connection handle.
func (m *Metrics) HandleCreated() {
	if m == nil {
		return
	}
	m.handles.Inc()
}

// AddBytes records transferred bytes.
func (m *Metrics) AddBytes(direction string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.WithLabelValues(direction).Add(float64(n))
}

// Result maps an error to a low-cardinality result label.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(errors.KindOf(err).String())
}
