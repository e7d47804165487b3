package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// knownRoutes bounds the route label cardinality. Everything else is
// reported as "static".
var knownRoutes = map[string]bool{
	"/chat":        true,
	"/chat_stream": true,
	"/healthz":     true,
	"/metrics":     true,
}

// RouteLabel maps a request path to its metrics route label.
func RouteLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "static"
}

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - omotenashi_requests_total (counter): per request with method, route, and status class labels
//   - omotenashi_request_duration_seconds (histogram): request duration with method and route labels
//   - omotenashi_streaming_connections_active (gauge): incremented while an SSE response is in flight
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := RouteLabel(r.URL.Path)

		// EventSource sends this Accept header; the stream route always streams.
		if route == "/chat_stream" || strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			StreamingConnections.Inc()
			defer StreamingConnections.Dec()
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		statusStr := strconv.Itoa(sw.status/100) + "xx"

		RequestsTotal.WithLabelValues(r.Method, route, statusStr).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// to reach the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
