package kafka_middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketplace/pkg/kafka"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics counts and times Kafka traffic per topic.
type Metrics struct {
	published *prometheus.CounterVec
	consumed  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Messages handed to the broker, by result.",
		}, []string{"topic", "result"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Messages processed by a consumer handler, by result.",
		}, []string{"topic", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "kafka",
			Name:      "operation_duration_seconds",
			Help:      "Publish and handle latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic", "operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.published, m.consumed, m.duration)
	}
	return m
}

func (m *Metrics) Producer() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.duration.WithLabelValues(msg.Topic, "publish").Observe(time.Since(start).Seconds())
		m.published.WithLabelValues(msg.Topic, result(err)).Inc()
		return err
	}
}

func (m *Metrics) Consumer() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.duration.WithLabelValues(msg.Topic, "consume").Observe(time.Since(start).Seconds())
		m.consumed.WithLabelValues(msg.Topic, result(err)).Inc()
		return err
	}
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
