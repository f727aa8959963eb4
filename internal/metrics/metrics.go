package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Link flow metrics
	AuthorizeRedirectsTotal *prometheus.CounterVec
	CallbacksTotal          *prometheus.CounterVec
	ExchangesTotal          *prometheus.CounterVec
	ExchangeDuration        prometheus.Histogram
	RevokesTotal            *prometheus.CounterVec
	TokenValidationTotal    *prometheus.CounterVec
	TokenValidationDuration prometheus.Histogram

	// Connection gauges
	ConnectedAccounts prometheus.Gauge

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database query metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// If enabled=true, returns Prometheus-based Metrics.
// If enabled=false, returns NoopMetrics (zero overhead).
// Uses sync.Once to ensure Prometheus metrics are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		AuthorizeRedirectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_authorize_redirects_total",
				Help: "Total number of authorize URLs issued",
			},
			[]string{"result"}, // success, error
		),
		CallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_callbacks_total",
				Help: "Total number of OAuth callbacks by outcome",
			},
			[]string{"result"},
		),
		ExchangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_code_exchanges_total",
				Help: "Total number of authorization code exchanges",
			},
			[]string{"result"}, // success, error
		),
		ExchangeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "badgelink_code_exchange_duration_seconds",
				Help:    "Duration of authorization code exchanges",
				Buckets: prometheus.DefBuckets,
			},
		),
		RevokesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_revokes_total",
				Help: "Total number of token revocations by outcome",
			},
			[]string{"result"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_token_validation_total",
				Help: "Total number of access token validations",
			},
			[]string{"result"}, // valid, expired, absent
		),
		TokenValidationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "badgelink_token_validation_duration_seconds",
				Help:    "Duration of access token validations",
				Buckets: prometheus.DefBuckets,
			},
		),
		ConnectedAccounts: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "badgelink_connected_accounts",
				Help: "Current number of linked BitBadges accounts",
			},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "badgelink_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "badgelink_http_requests_in_flight",
				Help: "Current number of in-flight HTTP requests",
			},
		),
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badgelink_database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"},
		),
	}
}

const (
	resultSuccess = "success"
	resultError   = "error"
)

// RecordAuthorizeRedirect records an authorize URL issuance
func (m *Metrics) RecordAuthorizeRedirect(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.AuthorizeRedirectsTotal.WithLabelValues(result).Inc()
}

// RecordCallback records an OAuth callback outcome
func (m *Metrics) RecordCallback(result string) {
	m.CallbacksTotal.WithLabelValues(result).Inc()
}

// RecordExchange records an authorization code exchange
func (m *Metrics) RecordExchange(success bool, duration time.Duration) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.ExchangesTotal.WithLabelValues(result).Inc()
	m.ExchangeDuration.Observe(duration.Seconds())
}

// RecordRevoke records a token revocation outcome
func (m *Metrics) RecordRevoke(result string) {
	m.RevokesTotal.WithLabelValues(result).Inc()
}

// RecordTokenValidation records an access token validation
func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

// SetConnectedAccounts sets the current count of linked accounts (for periodic updates)
func (m *Metrics) SetConnectedAccounts(count int) {
	m.ConnectedAccounts.Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
