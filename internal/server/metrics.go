package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics carries the server's Prometheus instruments. Each server owns its
// registry so test fixtures can boot several servers in one process.
type metrics struct {
	registry *prometheus.Registry

	connectionsTotal  prometheus.Counter
	activeConnections prometheus.Gauge
	callsTotal        *prometheus.CounterVec
	callErrorsTotal   *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &metrics{
		registry: registry,
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_connections_total",
			Help: "Accepted WebSocket connections.",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_active_connections",
			Help: "Currently open WebSocket connections.",
		}),
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_rpc_calls_total",
			Help: "Dispatched RPC calls by method.",
		}, []string{"method"}),
		callErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_rpc_errors_total",
			Help: "Failed RPC calls by method and error code.",
		}, []string{"method", "code"}),
	}
}

func (m *metrics) connOpened() {
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *metrics) connClosed() {
	m.activeConnections.Dec()
}

func (m *metrics) observeCall(method string, errCode int) {
	m.callsTotal.WithLabelValues(method).Inc()
	if errCode != 0 {
		m.callErrorsTotal.WithLabelValues(method, strconv.Itoa(errCode)).Inc()
	}
}
