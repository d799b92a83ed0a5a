package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Set bundles the gateway's Prometheus collectors so wiring and tests can
// use isolated registries.
type Set struct {
	ConnectionsLive  prometheus.Gauge
	ConnectsTotal    prometheus.Counter
	DisconnectsTotal prometheus.Counter
	BroadcastsTotal  prometheus.Counter
	SendFailures     prometheus.Counter
	RejectedMessages *prometheus.CounterVec
}

// New registers the gateway collectors on the supplied registry.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		ConnectionsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_connections_live",
			Help: "Number of currently registered match connections.",
		}),
		ConnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_connects_total",
			Help: "Total accepted connection attempts.",
		}),
		DisconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_disconnects_total",
			Help: "Total connection teardowns.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_broadcasts_total",
			Help: "Total outbound messages fanned out to a match.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_send_failures_total",
			Help: "Outbound sends dropped because a connection could not accept them.",
		}),
		RejectedMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_rejected_messages_total",
			Help: "Inbound messages rejected before dispatch, by error code.",
		}, []string{"code"}),
	}
	if reg != nil {
		reg.MustRegister(s.ConnectionsLive, s.ConnectsTotal, s.DisconnectsTotal,
			s.BroadcastsTotal, s.SendFailures, s.RejectedMessages)
	}
	return s
}

// NewTestSet returns collectors registered on a throwaway registry.
func NewTestSet() *Set {
	return New(prometheus.NewRegistry())
}
