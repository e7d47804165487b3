// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the chat gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omotenashi_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omotenashi_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "omotenashi_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// UpstreamRequestsTotal counts calls to the serving endpoint by mode
	// (complete/stream) and outcome (ok/error).
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omotenashi_upstream_requests_total",
			Help: "Upstream requests",
		},
		[]string{"mode", "status"},
	)

	// UpstreamLatency records the time until the serving endpoint answered
	// (full body for complete, response headers for stream).
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omotenashi_upstream_latency_seconds",
			Help:    "Upstream latency",
			Buckets: LLMBuckets,
		},
		[]string{"mode"},
	)

	// StreamFallbacksTotal counts downgrades from real streaming to the
	// pseudo stream, by reason (error/empty).
	StreamFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omotenashi_stream_fallbacks_total",
			Help: "Stream fallbacks",
		},
		[]string{"reason"},
	)

	// StreamTokensTotal counts token events sent to clients by source
	// (upstream/fallback).
	StreamTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omotenashi_stream_tokens_total",
			Help: "Streamed token events",
		},
		[]string{"source"},
	)
)

// Label values shared by the engine and its tests.
const (
	ModeComplete = "complete"
	ModeStream   = "stream"

	StatusOK    = "ok"
	StatusError = "error"

	FallbackReasonError = "error"
	FallbackReasonEmpty = "empty"

	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		UpstreamRequestsTotal,
		UpstreamLatency,
		StreamFallbacksTotal,
		StreamTokensTotal,
	)
}
