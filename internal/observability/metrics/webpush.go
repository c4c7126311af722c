// Package metrics provides custom Prometheus metrics for PushGate components.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebPushMetrics contains all Prometheus metrics related to push delivery.
type WebPushMetrics struct {
	Sends             *prometheus.CounterVec
	Invalidations     prometheus.Counter
	StoreDeleteErrors prometheus.Counter
	RateLimited       prometheus.Counter
	SendDuration      prometheus.Histogram
	KeysLoaded        prometheus.Gauge
	registry          *prometheus.Registry
}

// NewWebPushMetrics creates a new instance of WebPushMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewWebPushMetrics(registry *prometheus.Registry) (*WebPushMetrics, error) {
	m := &WebPushMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize web push metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register web push metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for WebPushMetrics.
func (m *WebPushMetrics) initMetrics() error {
	m.Sends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webpush_sends_total",
		Help: "Total number of push delivery attempts by outcome",
	}, []string{"outcome"})

	m.Invalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webpush_invalidations_total",
		Help: "Total number of subscriptions invalidated after 404/410 responses",
	})

	m.StoreDeleteErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webpush_store_delete_errors_total",
		Help: "Total number of failed subscription store deletes",
	})

	m.RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webpush_rate_limited_total",
		Help: "Total number of sends rejected by the per-origin rate limiter",
	})

	m.SendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "webpush_send_duration_seconds",
		Help:    "Duration of push delivery attempts in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	m.KeysLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webpush_keys_loaded",
		Help: "Whether VAPID signing keys are imported (1) or not (0)",
	})

	return nil
}

// RecordSend increments the outcome counter for one delivery attempt.
func (m *WebPushMetrics) RecordSend(outcome string) {
	m.Sends.WithLabelValues(outcome).Inc()
}

// RecordInvalidation counts a subscription invalidated by the push service.
func (m *WebPushMetrics) RecordInvalidation() {
	m.Invalidations.Inc()
}

// RecordStoreDeleteError counts a failed best-effort store delete.
func (m *WebPushMetrics) RecordStoreDeleteError() {
	m.StoreDeleteErrors.Inc()
}

// RecordRateLimited counts a send rejected by the per-origin limiter.
func (m *WebPushMetrics) RecordRateLimited() {
	m.RateLimited.Inc()
}

// ObserveSendDuration records the duration of one delivery attempt.
func (m *WebPushMetrics) ObserveSendDuration(d time.Duration) {
	m.SendDuration.Observe(d.Seconds())
}

// SetKeysLoaded reports whether signing keys are currently imported.
func (m *WebPushMetrics) SetKeysLoaded(loaded bool) {
	if loaded {
		m.KeysLoaded.Set(1)
	} else {
		m.KeysLoaded.Set(0)
	}
}

// Collect implements the prometheus.Collector interface.
func (m *WebPushMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Sends.Collect(ch)
	ch <- m.Invalidations
	ch <- m.StoreDeleteErrors
	ch <- m.RateLimited
	ch <- m.SendDuration
	ch <- m.KeysLoaded
}

// Describe implements the prometheus.Collector interface.
func (m *WebPushMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Sends.Describe(ch)
	ch <- m.Invalidations.Desc()
	ch <- m.StoreDeleteErrors.Desc()
	ch <- m.RateLimited.Desc()
	ch <- m.SendDuration.Desc()
	ch <- m.KeysLoaded.Desc()
}
