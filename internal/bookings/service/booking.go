package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingserrors "marketplace/internal/bookings/errors"
	"marketplace/internal/bookings/repository"
	"marketplace/internal/bookings/validator"
	"marketplace/pkg/config"
	apperrors "marketplace/pkg/errors"
	"marketplace/pkg/filter"
	"marketplace/pkg/model"
	"marketplace/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, intake *model.BookingIntake) (*model.ProviderBooking, error)
	GetByID(ctx context.Context, id string) (*model.ProviderBooking, error)
	List(ctx context.Context, search string, status string, limit int, offset int64) ([]*model.ProviderBooking, int64, error)
	Accept(ctx context.Context, id string) (*model.ProviderBooking, error)
	Reject(ctx context.Context, id string, reason string) (*model.ProviderBooking, error)
	Start(ctx context.Context, id string) (*model.ProviderBooking, error)
	Complete(ctx context.Context, id string) (*model.ProviderBooking, error)
	Cancel(ctx context.Context, id string) (*model.ProviderBooking, error)
	Stats(ctx context.Context) (*model.ProviderStats, error)
	// SyncMetrics seeds the pending gauge from storage. Called once at startup.
	SyncMetrics(ctx context.Context) error
}

type transition struct {
	from []model.CanonicalStatus
	// to is empty for reject, which removes the booking instead.
	to model.CanonicalStatus
}

var lifecycle = map[model.BookingOp]transition{
	model.OpAccept:   {from: []model.CanonicalStatus{model.StatusPending}, to: model.StatusConfirmed},
	model.OpReject:   {from: []model.CanonicalStatus{model.StatusPending}},
	model.OpStart:    {from: []model.CanonicalStatus{model.StatusConfirmed}, to: model.StatusInProgress},
	model.OpComplete: {from: []model.CanonicalStatus{model.StatusInProgress}, to: model.StatusCompleted},
	model.OpCancel:   {from: []model.CanonicalStatus{model.StatusPending, model.StatusConfirmed, model.StatusInProgress}, to: model.StatusCancelled},
}

// Allowed reports whether op may be applied to a booking in status from.
func Allowed(op model.BookingOp, from model.CanonicalStatus) bool {
	t, ok := lifecycle[op]
	return ok && slices.Contains(t.from, from)
}

type bookingService struct {
	repo      repository.BookingRepository
	validator *validator.BookingValidator
	policy    CommissionPolicy
	publisher EventPublisher
	metrics   *Metrics
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	validator *validator.BookingValidator,
	policy CommissionPolicy,
	publisher EventPublisher,
	metrics *Metrics,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		validator: validator,
		policy:    policy,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, intake *model.BookingIntake) (*model.ProviderBooking, error) {
	if intake == nil {
		return nil, apperrors.InvalidInput("Booking intake cannot be empty")
	}

	rawPhone := intake.CustomerPhone
	s.sanitize(intake)
	if rawPhone != "" && intake.CustomerPhone == "" {
		return nil, apperrors.Validation("Invalid booking input", map[string]any{
			"CustomerPhone": "CustomerPhone must be a valid phone number",
		})
	}
	if err := s.validate(func() error { return s.validator.ValidateIntake(intake) }); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	price := model.RoundCurrency(intake.Price)
	booking := &model.ProviderBooking{
		ID:            uuid.NewString(),
		CustomerName:  intake.CustomerName,
		CustomerPhone: intake.CustomerPhone,
		ServiceLabel:  intake.ServiceLabel,
		Notes:         intake.Notes,
		Price:         price,
		Commission:    s.policy.Commission(price),
		Status:        model.StatusPending,
		ScheduledAt:   intake.ScheduledAt.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.validate(func() error { return s.validator.Validate(booking) }); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}
	s.metrics.bookingCreated()

	s.cfg.Log.Info("Booking created successfully",
		"booking_id", booking.ID,
		"price", booking.Price,
		"commission", booking.Commission,
		"scheduled_at", booking.ScheduledAt,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.ProviderBooking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(id, "Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, search string, status string, limit int, offset int64) ([]*model.ProviderBooking, int64, error) {
	var canonical model.CanonicalStatus
	if status == "" {
		status = model.StatusAll
	}
	if status != model.StatusAll {
		parsed, ok := model.ParseCanonicalStatus(status)
		if !ok {
			return nil, 0, apperrors.InvalidInput("Unknown booking status: " + status)
		}
		canonical = parsed
	}

	bookings, err := s.repo.FindAll(ctx, canonical)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "status", status, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	matched := filter.Apply(bookings, search, status)
	total := int64(len(matched))
	return page(matched, limit, offset), total, nil
}

func (s *bookingService) Accept(ctx context.Context, id string) (*model.ProviderBooking, error) {
	t := lifecycle[model.OpAccept]
	return s.apply(ctx, model.OpAccept, id, func(ctx context.Context) (*model.ProviderBooking, model.CanonicalStatus, error) {
		return s.repo.Transition(ctx, id, t.from, t.to)
	})
}

func (s *bookingService) Start(ctx context.Context, id string) (*model.ProviderBooking, error) {
	t := lifecycle[model.OpStart]
	return s.apply(ctx, model.OpStart, id, func(ctx context.Context) (*model.ProviderBooking, model.CanonicalStatus, error) {
		return s.repo.Transition(ctx, id, t.from, t.to)
	})
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.ProviderBooking, error) {
	t := lifecycle[model.OpCancel]
	return s.apply(ctx, model.OpCancel, id, func(ctx context.Context) (*model.ProviderBooking, model.CanonicalStatus, error) {
		return s.repo.Transition(ctx, id, t.from, t.to)
	})
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.ProviderBooking, error) {
	booking, err := s.apply(ctx, model.OpComplete, id, func(ctx context.Context) (*model.ProviderBooking, model.CanonicalStatus, error) {
		b, err := s.repo.Complete(ctx, id)
		return b, model.StatusInProgress, err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.accrue(booking)
	s.cfg.Log.Info("Revenue accrued",
		"booking_id", booking.ID,
		"price", booking.Price,
		"commission", booking.Commission,
		"net_revenue", booking.NetRevenue(),
	)
	return booking, nil
}

// Reject drops a pending booking from the queue and tells the customer why.
// It is not a cancellation: the booking is gone afterwards.
func (s *bookingService) Reject(ctx context.Context, id string, reason string) (*model.ProviderBooking, error) {
	reason = sanitizer.SanitizeText(reason)
	if err := s.validate(func() error { return s.validator.ValidateReason(reason) }); err != nil {
		return nil, err
	}

	booking, err := s.apply(ctx, model.OpReject, id, func(ctx context.Context) (*model.ProviderBooking, model.CanonicalStatus, error) {
		b, err := s.repo.RemovePending(ctx, id)
		return b, model.StatusPending, err
	})
	if err != nil {
		return nil, err
	}

	notice := model.RejectionNotice{BookingID: booking.ID, Reason: reason}
	if err := s.publisher.NotifyRejection(ctx, notice); err != nil {
		s.cfg.Log.Error("Failed to notify booking rejection", "booking_id", booking.ID, "error", err)
	}
	return booking, nil
}

// apply runs one lifecycle operation. The status check up front rejects
// obvious misuse without writing; write must itself be a compare-and-set so
// that a concurrent change between check and write is still refused.
func (s *bookingService) apply(
	ctx context.Context,
	op model.BookingOp,
	id string,
	write func(ctx context.Context) (*model.ProviderBooking, model.CanonicalStatus, error),
) (*model.ProviderBooking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(id, "Failed to retrieve booking", err)
	}
	if !Allowed(op, current.Status) {
		s.metrics.transition(op, outcomeInvalid, "")
		return nil, s.invalidTransition(id, current.Status, op)
	}

	booking, left, err := write(ctx)
	if err != nil {
		var mismatch *bookingserrors.StatusMismatchError
		if errors.As(err, &mismatch) {
			s.metrics.transition(op, outcomeInvalid, "")
			return nil, s.invalidTransition(id, mismatch.Current, op)
		}
		s.metrics.transition(op, outcomeFailure, "")
		s.cfg.Log.Error("Failed to apply booking operation", "booking_id", id, "op", op, "error", err)
		return nil, s.mapRepoError(id, "Failed to update booking", err)
	}
	s.metrics.transition(op, outcomeSuccess, left)

	to := lifecycle[op].to
	s.cfg.Log.Info("Booking status changed", "booking_id", id, "op", op, "from", left, "to", to)

	event := model.BookingEvent{
		BookingID:  booking.ID,
		Op:         op,
		From:       left,
		To:         to,
		Price:      booking.Price,
		Commission: booking.Commission,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishLifecycle(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event", "booking_id", id, "op", op, "error", err)
	}
	return booking, nil
}

func (s *bookingService) invalidTransition(id string, from model.CanonicalStatus, op model.BookingOp) error {
	cause := &bookingserrors.InvalidTransitionError{BookingID: id, From: from, AttemptedOp: op}
	s.cfg.Log.Warn("Rejected booking operation", "booking_id", id, "op", op, "from", from)
	return apperrors.InvalidTransition(cause.Error(), cause).WithDetails(map[string]any{
		"booking_id":   id,
		"from":         from,
		"attempted_op": op,
	})
}

func (s *bookingService) Stats(ctx context.Context) (*model.ProviderStats, error) {
	var (
		pending    int64
		ledger     model.RevenueLedger
		errPending error
		errLedger  error
		wg         sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		pending, errPending = s.repo.CountByStatus(ctx, model.StatusPending)
	}()

	go func() {
		defer wg.Done()
		ledger, errLedger = s.repo.Ledger(ctx)
	}()

	wg.Wait()
	if errPending != nil {
		s.cfg.Log.Error("Failed to count pending bookings", "error", errPending)
		return nil, apperrors.Internal("Failed to compute booking stats", errPending)
	}
	if errLedger != nil {
		s.cfg.Log.Error("Failed to read revenue ledger", "error", errLedger)
		return nil, apperrors.Internal("Failed to compute booking stats", errLedger)
	}

	return &model.ProviderStats{
		PendingCount:    pending,
		CompletedCount:  ledger.CompletedCount,
		TotalRevenue:    model.RoundCurrency(ledger.TotalRevenue),
		TotalCommission: model.RoundCurrency(ledger.TotalCommission),
		NetRevenue:      model.RoundCurrency(ledger.TotalRevenue - ledger.TotalCommission),
	}, nil
}

func (s *bookingService) SyncMetrics(ctx context.Context) error {
	pending, err := s.repo.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		return err
	}
	s.metrics.setPending(pending)
	return nil
}

func (s *bookingService) sanitize(intake *model.BookingIntake) {
	intake.CustomerName = sanitizer.SanitizeText(intake.CustomerName)
	intake.ServiceLabel = sanitizer.SanitizeText(intake.ServiceLabel)
	intake.Notes = sanitizer.SanitizeText(intake.Notes)
	intake.CustomerPhone = sanitizer.NormalizePhone(intake.CustomerPhone)
}

func (s *bookingService) validate(check func() error) error {
	err := check()
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Invalid booking input", verrs.Details())
	}
	return apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
}

func (s *bookingService) mapRepoError(id, message string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.Internal(message, err)
	}
}

func page[T any](items []T, limit int, offset int64) []T {
	offset = config.NormalizeOffset(offset)
	if offset >= int64(len(items)) {
		return []T{}
	}
	end := int64(len(items))
	if limit > 0 && offset+int64(limit) < end {
		end = offset + int64(limit)
	}
	return items[offset:end]
}
