package service

import (
	"context"

	"marketplace/pkg/model"
)

// EventPublisher hands lifecycle changes to the rest of the platform.
type EventPublisher interface {
	PublishLifecycle(ctx context.Context, event model.BookingEvent) error
	// NotifyRejection delivers {bookingId, reason} to the notification
	// collaborator so the customer learns about the refusal.
	NotifyRejection(ctx context.Context, notice model.RejectionNotice) error
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishLifecycle(context.Context, model.BookingEvent) error    { return nil }
func (NoopPublisher) NotifyRejection(context.Context, model.RejectionNotice) error { return nil }
