package middleware

import (
	"bufio"
	"errors"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"opsboard-services/internal/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const latencyWindow = 200

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// routeLatency keeps the last latencyWindow samples per route in a ring.
type routeLatency struct {
	mu     sync.Mutex
	routes map[string]*ring
}

type ring struct {
	samples []int64
	next    int
}

func newRouteLatency() *routeLatency {
	return &routeLatency{routes: make(map[string]*ring)}
}

// observe records ms for route and returns the route's current p50 and p95.
func (l *routeLatency) observe(route string, ms int64) (int64, int64) {
	l.mu.Lock()
	rg, ok := l.routes[route]
	if !ok {
		rg = &ring{samples: make([]int64, 0, latencyWindow)}
		l.routes[route] = rg
	}
	if len(rg.samples) < latencyWindow {
		rg.samples = append(rg.samples, ms)
	} else {
		rg.samples[rg.next] = ms
		rg.next = (rg.next + 1) % latencyWindow
	}
	sorted := slices.Clone(rg.samples)
	l.mu.Unlock()

	slices.Sort(sorted)
	return percentile(sorted, 0.5), percentile(sorted, 0.95)
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

// Telemetry logs one line per request and feeds the HTTP metrics. Route
// labels use the chi pattern so path ids do not explode cardinality.
func Telemetry(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	latency := newRouteLatency()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if m != nil {
				m.HTTPRequests.WithLabelValues(r.Method, route, statusClass(status)).Inc()
				m.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			}
			if logger == nil {
				return
			}

			p50, p95 := latency.observe(r.Method+" "+route, elapsed.Milliseconds())
			level := zapcore.InfoLevel
			if status >= http.StatusInternalServerError {
				level = zapcore.ErrorLevel
			}
			logger.Log(level, "http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.String("requestId", RequestIDFromContext(r.Context())),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
				zap.Int64("p50_ms", p50),
				zap.Int64("p95_ms", p95),
			)
		})
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
