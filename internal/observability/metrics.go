// Package observability provides Prometheus metrics and the process logger.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Waitlist submission outcomes.
const (
	OutcomeAdded     = "added"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream metrics
	UpstreamFetchLatency *prometheus.HistogramVec
	UpstreamFetchErrors  *prometheus.CounterVec
	CacheLookups         *prometheus.CounterVec
	RPCCallLatency       *prometheus.HistogramVec
	RPCCallErrors        *prometheus.CounterVec

	// Scanner metrics
	ListingsScored *prometheus.CounterVec
	StreamClients  prometheus.Gauge

	// Waitlist metrics
	WaitlistSubmissions *prometheus.CounterVec
	WaitlistSize        prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pumpscope"
	}

	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		UpstreamFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pumpfun",
			Name:      "fetch_latency_seconds",
			Help:      "Launch-feed fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feed"}),
		UpstreamFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pumpfun",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed launch-feed fetches",
		}, []string{"feed"}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pumpfun",
			Name:      "cache_lookups_total",
			Help:      "Launch-feed cache lookups by result",
		}, []string{"feed", "result"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		ListingsScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "listings_scored_total",
			Help:      "Total number of listings scored by risk level",
		}, []string{"level"}),
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected snapshot stream clients",
		}),

		WaitlistSubmissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "waitlist",
			Name:      "submissions_total",
			Help:      "Total number of waitlist submissions by outcome",
		}, []string{"outcome"}),
		WaitlistSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "waitlist",
			Name:      "size",
			Help:      "Number of emails on the waitlist",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordUpstreamFetch records a launch-feed fetch. Matches scanner.SourceObserver.
func RecordUpstreamFetch(feed string, elapsed time.Duration, err error) {
	DefaultMetrics.UpstreamFetchLatency.WithLabelValues(feed).Observe(elapsed.Seconds())
	if err != nil {
		DefaultMetrics.UpstreamFetchErrors.WithLabelValues(feed).Inc()
	}
}

// RecordCacheLookup records a cache hit or miss. Matches pumpfun.HitObserver.
func RecordCacheLookup(feed string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(feed, result).Inc()
}

// RecordRPCCall records RPC call latency. Matches solana.CallObserver.
func RecordRPCCall(method string, elapsed time.Duration, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordListingScored increments the scored listings counter for level.
func RecordListingScored(level string) {
	DefaultMetrics.ListingsScored.WithLabelValues(level).Inc()
}

// StreamClientConnected adjusts the stream client gauge by delta.
func StreamClientConnected(delta int) {
	DefaultMetrics.StreamClients.Add(float64(delta))
}

// RecordWaitlistSubmission records a submission outcome.
func RecordWaitlistSubmission(outcome string) {
	DefaultMetrics.WaitlistSubmissions.WithLabelValues(outcome).Inc()
}

// UpdateWaitlistSize sets the waitlist size gauge.
func UpdateWaitlistSize(n int) {
	DefaultMetrics.WaitlistSize.Set(float64(n))
}
