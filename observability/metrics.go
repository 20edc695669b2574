package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics records request activity for the registry's RPC methods.
type RPCMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *RPCMetrics
)

// Metrics returns the lazily-initialised metrics registry used to record RPC
// activity. Collectors register against the default Prometheus registerer so
// they surface on the daemon's /metrics endpoint.
func Metrics() *RPCMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &RPCMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "wino",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Number of RPC requests handled, by method.",
			}, []string{"method"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "wino",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Number of RPC requests that returned an error, by method.",
			}, []string{"method"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "wino",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "RPC request handling latency, by method.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.errors, rpcRegistry.latency)
	})
	return rpcRegistry
}

// Observe records one completed RPC call.
func (m *RPCMetrics) Observe(method string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = "unknown"
	}
	m.requests.WithLabelValues(method).Inc()
	if failed {
		m.errors.WithLabelValues(method).Inc()
	}
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}
