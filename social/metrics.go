package social

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics exposes service activity to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	sweptRequests prometheus.Counter
	pending       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialgraph_operations_total",
				Help: "Total number of social graph operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		sweptRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "socialgraph_expired_requests_total",
			Help: "Total number of expired friend requests removed by the sweeper",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socialgraph_pending_requests",
			Help: "Number of friend requests held in memory",
		}),
	}
	reg.MustRegister(m.operations, m.sweptRequests, m.pending)
	return m
}

func (m *Metrics) observe(operation string, ok bool, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	switch {
	case err != nil:
		outcome = outcomeError
	case !ok:
		outcome = outcomeRejected
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) swept(removed, pending int) {
	if m == nil {
		return
	}
	m.sweptRequests.Add(float64(removed))
	m.pending.Set(float64(pending))
}
