package events

import (
	"context"

	"marketplace/pkg/kafka"
	"marketplace/pkg/middleware"
	"marketplace/pkg/model"
)

const (
	source        = "bookings"
	schemaVersion = "1"

	EventTypeRejectionNotice = "booking.rejection_notice"
)

// LifecycleEventType is the event-type header of a state change, e.g.
// "booking.accept".
func LifecycleEventType(op model.BookingOp) string {
	return "booking." + string(op)
}

// Publisher is the interface the producer satisfies; kept small for tests.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes booking events keyed by booking id, so every event
// of one booking lands on the same partition in order.
type KafkaPublisher struct {
	producer Publisher
}

func NewKafkaPublisher(producer Publisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) PublishLifecycle(ctx context.Context, event model.BookingEvent) error {
	return p.publish(ctx, event.BookingID, LifecycleEventType(event.Op), event)
}

func (p *KafkaPublisher) NotifyRejection(ctx context.Context, notice model.RejectionNotice) error {
	return p.publish(ctx, notice.BookingID, EventTypeRejectionNotice, notice)
}

func (p *KafkaPublisher) publish(ctx context.Context, key, eventType string, payload any) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithJSON(payload).
		WithEventType(eventType).
		WithSource(source).
		WithSchemaVersion(schemaVersion).
		WithCorrelationID(middleware.RequestID(ctx)).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}
