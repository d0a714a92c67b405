// Package metrics exposes Prometheus instrumentation for the sampler, the
// distributor and the HTTP server. Every Metrics value owns a private
// registry so that several instances (tests, embedded servers) never collide
// on the default global registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/cpuwatch/internal/distributor"
	"github.com/agbru/cpuwatch/internal/snapshot"
	"github.com/agbru/cpuwatch/internal/sysmon"
)

const namespace = "cpuwatch"

// Metrics groups every collector registered by cpuwatch.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	samplesTotal    prometheus.Counter
	sampleFailures  prometheus.Counter
	sampleDuration  prometheus.Histogram
	publishRejected *prometheus.CounterVec
	subscribers     prometheus.Gauge
	coreUtilization *prometheus.GaugeVec

	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	streamsTotal   *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime,
// process and host memory collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Number of per-core snapshots read from the OS.",
		}),
		sampleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_failures_total",
			Help:      "Number of sampling ticks skipped because the counters could not be read.",
		}),
		sampleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_duration_seconds",
			Help:      "Time spent reading and computing one snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		publishRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_rejected_total",
			Help:      "Snapshots refused by the distributor, by reason.",
		}, []string{"reason"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscribers",
			Help:      "Number of live streaming subscriptions.",
		}),
		coreUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "core_utilization_percent",
			Help:      "Utilization of each logical core in the latest snapshot.",
		}, []string{"core"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "Number of HTTP requests being served, streams included.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
		streamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Push streams opened, by transport.",
		}, []string{"transport"}),
	}

	hostMemory := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "host_memory_used_percent",
		Help:      "Host memory usage reported by the OS.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		pct, err := sysmon.MemoryPercent(ctx)
		if err != nil {
			return 0
		}
		return pct
	})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		hostMemory,
		m.samplesTotal,
		m.sampleFailures,
		m.sampleDuration,
		m.publishRejected,
		m.subscribers,
		m.coreUtilization,
		m.activeRequests,
		m.requestsTotal,
		m.streamsTotal,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// WritePrometheus serves the exposition format for the request.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// SampleTaken records a successful sampling tick.
func (m *Metrics) SampleTaken(s snapshot.Snapshot, elapsed time.Duration) {
	m.samplesTotal.Inc()
	m.sampleDuration.Observe(elapsed.Seconds())
	for i, v := range s.Cores {
		m.coreUtilization.WithLabelValues(strconv.Itoa(i)).Set(v)
	}
}

// SampleFailed records a skipped tick.
func (m *Metrics) SampleFailed(error) {
	m.sampleFailures.Inc()
}

// PublishRejected implements distributor.Observer.
func (m *Metrics) PublishRejected(err error) {
	m.publishRejected.WithLabelValues(rejectReason(err)).Inc()
}

// SubscribersChanged implements distributor.Observer.
func (m *Metrics) SubscribersChanged(n int) {
	m.subscribers.Set(float64(n))
}

// IncrementActiveRequests increments the in-flight request gauge.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests decrements the in-flight request gauge.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// ObserveRequest counts a completed request.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// StreamOpened counts a new push stream for the given transport ("ws", "sse").
func (m *Metrics) StreamOpened(transport string) {
	m.streamsTotal.WithLabelValues(transport).Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, distributor.ErrTooSoon):
		return "too_soon"
	case errors.Is(err, distributor.ErrEmptySnapshot):
		return "empty"
	case errors.Is(err, distributor.ErrClosed):
		return "closed"
	default:
		return "other"
	}
}

var _ distributor.Observer = (*Metrics)(nil)
