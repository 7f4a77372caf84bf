// Package metrics exposes Prometheus metrics for tool calls and History
// Server traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"

	CacheMemoryHit = "memory_hit"
	CacheDiskHit   = "disk_hit"
	CacheMiss      = "miss"
)

var (
	// ToolCallsTotal counts MCP tool invocations by tool and status.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shs_mcp_tool_calls_total",
			Help: "Total MCP tool calls processed",
		},
		[]string{"tool", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "shs_mcp_tool_duration_seconds",
			Help: "MCP tool call duration in seconds",
			// comparisons fan out to several History Server calls
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)

	ActiveToolCalls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shs_mcp_active_tool_calls",
			Help: "Number of in-flight MCP tool calls",
		},
	)

	// HistoryRequestsTotal counts REST calls made to each History Server.
	HistoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shs_history_requests_total",
			Help: "Total Spark History Server REST requests",
		},
		[]string{"server", "status"},
	)

	AttemptFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shs_history_attempt_fallbacks_total",
			Help: "Requests retried with the default attempt id after a 404",
		},
		[]string{"server"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shs_cache_lookups_total",
			Help: "Response cache lookups by resource kind and result",
		},
		[]string{"kind", "result"},
	)
)

// RecordToolCall records a finished tool call.
func RecordToolCall(tool, status string, durationSeconds float64) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// StartToolCall marks a tool call in flight and returns the function that
// completes it.
func StartToolCall(tool string) func(err error) {
	ActiveToolCalls.Inc()
	start := time.Now()
	return func(err error) {
		ActiveToolCalls.Dec()
		status := StatusSuccess
		if err != nil {
			status = StatusError
		}
		RecordToolCall(tool, status, time.Since(start).Seconds())
	}
}

func RecordHistoryRequest(server, status string) {
	HistoryRequestsTotal.WithLabelValues(server, status).Inc()
}

func RecordFallback(server string) {
	AttemptFallbacksTotal.WithLabelValues(server).Inc()
}

func RecordCacheLookup(kind, result string) {
	CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
