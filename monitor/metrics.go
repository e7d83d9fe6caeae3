package monitor

import "github.com/prometheus/client_golang/prometheus"

// metrics is the monitor's Prometheus surface: one counter per passenger
// event outcome, one for quiet-route requests, and gauges mirroring the
// connected-client set and the loaded network's size. cmd/transit-monitor
// mounts Registry() behind promhttp for scraping.
type metrics struct {
	registry *prometheus.Registry

	passengerEvents  *prometheus.CounterVec
	quietRouteReqs   prometheus.Counter
	connectedClients prometheus.Gauge
	stationCount     prometheus.Gauge
	lineCount        prometheus.Gauge
	lastErrorCode    *prometheus.GaugeVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		passengerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transit_monitor",
			Name:      "passenger_events_total",
			Help:      "Passenger events applied to the network, by outcome.",
		}, []string{"outcome"}),
		quietRouteReqs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transit_monitor",
			Name:      "quiet_route_requests_total",
			Help:      "Quiet-route requests served by the downstream STOMP server.",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transit_monitor",
			Name:      "quiet_route_connected_clients",
			Help:      "Downstream clients currently connected to the quiet-route endpoint.",
		}),
		stationCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transit_monitor",
			Name:      "network_stations",
			Help:      "Stations currently loaded in the transport network.",
		}),
		lineCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transit_monitor",
			Name:      "network_lines",
			Help:      "Lines currently loaded in the transport network.",
		}),
		lastErrorCode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "transit_monitor",
			Name:      "last_error_code",
			Help:      "1 on the orchestrator's current last-error code, 0 elsewhere.",
		}, []string{"code"}),
	}
	m.registry.MustRegister(
		m.passengerEvents, m.quietRouteReqs, m.connectedClients,
		m.stationCount, m.lineCount, m.lastErrorCode,
	)
	return m
}

func (m *metrics) setLastError(c Code) {
	m.lastErrorCode.Reset()
	m.lastErrorCode.WithLabelValues(c.String()).Set(1)
}

// Registry exposes the Prometheus registry for cmd/transit-monitor to mount
// behind an HTTP handler.
func (mon *Monitor) Registry() *prometheus.Registry { return mon.metrics.registry }
