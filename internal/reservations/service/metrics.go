package service

import (
	"time"

	"marketplace/pkg/model"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeStale    = "stale"
	outcomeRejected = "rejected"
)

// Metrics is shared by every session aggregator of a process. A nil *Metrics
// records nothing.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cancels       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "reservations",
			Name:      "fetch_total",
			Help:      "Domain list fetches by outcome.",
		}, []string{"domain", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "reservations",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of marketplace API list calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"domain"}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "reservations",
			Name:      "cancel_total",
			Help:      "Customer cancellation attempts by outcome.",
		}, []string{"domain", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.fetchDuration, m.cancels)
	}
	return m
}

func (m *Metrics) observeFetch(d model.Domain, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(string(d), outcome).Inc()
	m.fetchDuration.WithLabelValues(string(d)).Observe(took.Seconds())
}

func (m *Metrics) observeCancel(d model.Domain, outcome string) {
	if m == nil {
		return
	}
	m.cancels.WithLabelValues(string(d), outcome).Inc()
}
