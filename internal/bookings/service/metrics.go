package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"marketplace/pkg/model"
)

const (
	outcomeSuccess = "success"
	outcomeInvalid = "invalid_transition"
	outcomeFailure = "failure"
)

// Metrics exposes the provider queue. A nil *Metrics records nothing.
type Metrics struct {
	pending     prometheus.Gauge
	created     prometheus.Counter
	transitions *prometheus.CounterVec
	revenue     prometheus.Counter
	commission  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "marketplace",
			Subsystem: "bookings",
			Name:      "pending",
			Help:      "Provider bookings waiting for accept or reject.",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Provider bookings taken in.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Lifecycle operations by outcome.",
		}, []string{"op", "outcome"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "bookings",
			Name:      "revenue_euros_total",
			Help:      "Gross price of completed bookings.",
		}),
		commission: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "bookings",
			Name:      "commission_euros_total",
			Help:      "Platform commission of completed bookings.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.pending, m.created, m.transitions, m.revenue, m.commission)
	}
	return m
}

func (m *Metrics) setPending(n int64) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) bookingCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
	m.pending.Inc()
}

func (m *Metrics) transition(op model.BookingOp, outcome string, left model.CanonicalStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(op), outcome).Inc()
	if outcome == outcomeSuccess && left == model.StatusPending {
		m.pending.Dec()
	}
}

func (m *Metrics) accrue(b *model.ProviderBooking) {
	if m == nil {
		return
	}
	m.revenue.Add(b.Price)
	m.commission.Add(b.Commission)
}
