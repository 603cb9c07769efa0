// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the parley chat backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// ExchangesTotal counts chat exchanges by provider, model, and outcome.
	ExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_exchanges_total",
			Help: "Chat exchanges",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records backend provider turn latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// ProviderTokensTotal counts tokens processed by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// ToolInvocationsTotal counts tool invocations by name and outcome.
	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_tool_invocations_total",
			Help: "Tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	// RateLimitRejectedTotal counts requests rejected by rate limiting,
	// by service tier.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_rate_limit_rejected_total",
			Help: "Rate limited requests",
		},
		[]string{"tier"},
	)

	// SummariesTotal counts conversation title summarizations by outcome.
	SummariesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_summaries_total",
			Help: "Title summarizations",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		ExchangesTotal,
		ProviderLatency,
		ProviderTokensTotal,
		ToolInvocationsTotal,
		RateLimitRejectedTotal,
		SummariesTotal,
	)
}
