package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"todoapi/internal/core/domain"
)

// AppMetrics holds the application's Prometheus collectors. Go runtime and
// process metrics are registered next to it by the telemetry container.
type AppMetrics struct {
	httpDuration     *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
	httpInFlight     prometheus.Gauge
	serviceCalls     *prometheus.CounterVec
	storeCalls       *prometheus.CounterVec
	storeDuration    *prometheus.HistogramVec
	rateLimitResults *prometheus.CounterVec
	businessEvents   *prometheus.CounterVec
}

var storeBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}

func NewAppMetrics(registry prometheus.Registerer) *AppMetrics {
	routeLabels := []string{"method", "path", "status"}

	m := &AppMetrics{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, routeLabels),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by route and status",
		}, routeLabels),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
		serviceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoapi_service_calls_total",
			Help: "Service calls by outcome; the outcome is the error kind or success",
		}, []string{"service", "operation", "outcome"}),
		storeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoapi_store_calls_total",
			Help: "Statements issued to the persistent store",
		}, []string{"operation", "table"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todoapi_store_call_duration_seconds",
			Help:    "Latency of statements issued to the persistent store",
			Buckets: storeBuckets,
		}, []string{"operation", "table"}),
		rateLimitResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoapi_rate_limit_decisions_total",
			Help: "Rate limiter decisions by tier, key type and result",
		}, []string{"tier", "key_type", "result"}),
		businessEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoapi_business_events_total",
			Help: "Domain events such as user.login or todo.status_changed",
		}, []string{"event"}),
	}

	registry.MustRegister(
		m.httpDuration,
		m.httpRequests,
		m.httpInFlight,
		m.serviceCalls,
		m.storeCalls,
		m.storeDuration,
		m.rateLimitResults,
		m.businessEvents,
	)

	return m
}

func (m *AppMetrics) RecordRequest(ctx context.Context, method, path, status string, duration time.Duration) {
	m.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, path, status).Inc()
}

func (m *AppMetrics) IncrementActiveConnections(ctx context.Context) {
	m.httpInFlight.Inc()
}

func (m *AppMetrics) DecrementActiveConnections(ctx context.Context) {
	m.httpInFlight.Dec()
}

func (m *AppMetrics) RecordServiceOperation(ctx context.Context, service, operation string, err error) {
	outcome := "success"

	if err != nil {
		outcome = string(domain.AsError(err).Kind)
	}

	m.serviceCalls.WithLabelValues(service, operation, outcome).Inc()
}

func (m *AppMetrics) RecordDatabaseOperation(ctx context.Context, operation, table string, duration time.Duration) {
	m.storeCalls.WithLabelValues(operation, table).Inc()
	m.storeDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func (m *AppMetrics) RecordRateLimitHit(ctx context.Context, tier, keyType string) {
	m.rateLimitResults.WithLabelValues(tier, keyType, "rejected").Inc()
}

func (m *AppMetrics) RecordRateLimitAllowed(ctx context.Context, tier, keyType string) {
	m.rateLimitResults.WithLabelValues(tier, keyType, "allowed").Inc()
}

func (m *AppMetrics) RecordBusinessEvent(ctx context.Context, event string) {
	m.businessEvents.WithLabelValues(event).Inc()
}
