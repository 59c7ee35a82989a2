package events

import (
	"context"
	"errors"
	"net/http"

	"marketplace/internal/bookings/service"
	apperrors "marketplace/pkg/errors"
	"marketplace/pkg/kafka"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

// IntakeHandler turns messages of the intake topic into new pending
// bookings. Malformed or invalid payloads are permanent failures; storage
// errors are retried.
func IntakeHandler(svc service.BookingService, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var intake model.BookingIntake
		if err := msg.DecodeValue(&intake); err != nil {
			return err
		}

		booking, err := svc.Create(ctx, &intake)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.StatusCode() < http.StatusInternalServerError {
				return kafka.NewPermanentError("booking intake rejected", err)
			}
			return kafka.NewTransientError("booking intake failed", err)
		}

		log.Info("Booking received from intake topic",
			"booking_id", booking.ID,
			"event_id", msg.EventID(),
			"offset", msg.Offset,
		)
		return nil
	}
}
