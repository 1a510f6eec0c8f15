package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks RPC lifecycle transitions. A nil *Metrics records nothing.
type Metrics struct {
	starts     *prometheus.CounterVec
	stops      *prometheus.CounterVec
	ready      prometheus.Gauge
	transports prometheus.Gauge
}

// NewMetrics registers the lifecycle collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		starts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meshrpc",
			Subsystem: "lifecycle",
			Name:      "starts_total",
			Help:      "Start calls by transport and result.",
		}, []string{"transport", "result"}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meshrpc",
			Subsystem: "lifecycle",
			Name:      "stops_total",
			Help:      "Stop calls by transport and result.",
		}, []string{"transport", "result"}),
		ready: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "meshrpc",
			Subsystem: "lifecycle",
			Name:      "ready",
			Help:      "1 while the RPC subsystem is ready.",
		}),
		transports: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "meshrpc",
			Subsystem: "lifecycle",
			Name:      "transports",
			Help:      "Registered transport handles.",
		}),
	}
}

// ObserveStart counts one Start call; result is "ok", "noop" or an error label.
func (m *Metrics) ObserveStart(transport, result string) {
	if m == nil {
		return
	}
	m.starts.WithLabelValues(transport, result).Inc()
}

// ObserveStop counts one Stop call.
func (m *Metrics) ObserveStop(transport, result string) {
	if m == nil {
		return
	}
	m.stops.WithLabelValues(transport, result).Inc()
}

// SetState publishes readiness and the number of registered handles.
func (m *Metrics) SetState(ready bool, transports int) {
	if m == nil {
		return
	}
	if ready {
		m.ready.Set(1)
	} else {
		m.ready.Set(0)
	}
	m.transports.Set(float64(transports))
}
