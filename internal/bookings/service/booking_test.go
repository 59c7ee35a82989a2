package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingserrors "marketplace/internal/bookings/errors"
	"marketplace/internal/bookings/repository"
	"marketplace/internal/bookings/validator"
	"marketplace/pkg/config"
	apperrors "marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

type mockPublisher struct {
	mu        sync.Mutex
	events    []model.BookingEvent
	notices   []model.RejectionNotice
	notifyErr error
}

func (m *mockPublisher) PublishLifecycle(_ context.Context, event model.BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) NotifyRejection(_ context.Context, notice model.RejectionNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, notice)
	return m.notifyErr
}

// mockBookingRepository lets a test script each repository call.
type mockBookingRepository struct {
	repository.BookingRepository
	findByIDFunc   func(ctx context.Context, id string) (*model.ProviderBooking, error)
	transitionFunc func(ctx context.Context, id string, from []model.CanonicalStatus, to model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error)
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.ProviderBooking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) Transition(ctx context.Context, id string, from []model.CanonicalStatus, to model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, id, from, to)
	}
	return nil, "", bookingserrors.ErrNotFound
}

type fixture struct {
	svc       BookingService
	publisher *mockPublisher
	metrics   *Metrics
}

func newFixture(t *testing.T, repo repository.BookingRepository) fixture {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{Log: log, CommissionRate: 0.10}
	pub := &mockPublisher{}
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewBookingService(repo, validator.NewBookingValidator(log), FlatRate(cfg.CommissionRate), pub, metrics, cfg)
	return fixture{svc: svc, publisher: pub, metrics: metrics}
}

func intake(price float64) *model.BookingIntake {
	return &model.BookingIntake{
		CustomerName:  "  Camille   Durand ",
		CustomerPhone: "06 12 34 56 78",
		ServiceLabel:  "Ménage complet",
		Notes:         "Code porte 1234",
		Price:         price,
		ScheduledAt:   time.Date(2026, 11, 3, 9, 30, 0, 0, time.UTC),
	}
}

func requireInvalidTransition(t *testing.T, err error, from model.CanonicalStatus, op model.BookingOp) {
	t.Helper()
	var invalid *bookingserrors.InvalidTransitionError
	require.True(t, errors.As(err, &invalid), "expected InvalidTransitionError, got %v", err)
	assert.Equal(t, from, invalid.From)
	assert.Equal(t, op, invalid.AttemptedOp)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusConflict, appErr.StatusCode())
	assert.Equal(t, invalid.BookingID, appErr.Details["booking_id"])
}

func TestCreate_ComputesCommissionOnce(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())

	b, err := f.svc.Create(context.Background(), intake(120))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, 120.0, b.Price)
	assert.Equal(t, 12.0, b.Commission)
	assert.Equal(t, 108.0, b.NetRevenue())
	assert.Equal(t, "Camille Durand", b.CustomerName)
	assert.Equal(t, "+33612345678", b.CustomerPhone)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.pending))

	accepted, err := f.svc.Accept(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, accepted.Commission)
	assert.Equal(t, model.StatusConfirmed, accepted.Status)
}

func TestCreate_RejectsBadInput(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())

	bad := intake(50)
	bad.CustomerPhone = "not a phone"
	_, err := f.svc.Create(context.Background(), bad)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.AsAppError(err).StatusCode())

	negative := intake(-1)
	_, err = f.svc.Create(context.Background(), negative)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)

	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.pending))
}

func TestAccept_TwiceIsInvalidAndCountsOnce(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(80))
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.pending))

	_, err = f.svc.Accept(ctx, b.ID)
	requireInvalidTransition(t, err, model.StatusConfirmed, model.OpAccept)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.pending))
	assert.Len(t, f.publisher.events, 1)
}

func TestAccept_ConcurrentCallsHaveOneWinner(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(80))
	require.NoError(t, err)

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Accept(ctx, b.ID)
			if err == nil {
				wins.Add(1)
				return
			}
			var invalid *bookingserrors.InvalidTransitionError
			if errors.As(err, &invalid) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(19), conflicts.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.pending))
}

func TestLifecycle_CompleteAccruesRevenue(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(120))
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, b.ID)
	requireInvalidTransition(t, err, model.StatusPending, model.OpComplete)

	_, err = f.svc.Start(ctx, b.ID)
	requireInvalidTransition(t, err, model.StatusPending, model.OpStart)

	_, err = f.svc.Accept(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, b.ID)
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.ProviderStats{
		PendingCount:    0,
		CompletedCount:  1,
		TotalRevenue:    120,
		TotalCommission: 12,
		NetRevenue:      108,
	}, stats)

	_, err = f.svc.Cancel(ctx, b.ID)
	requireInvalidTransition(t, err, model.StatusCompleted, model.OpCancel)

	ops := make([]model.BookingOp, 0, len(f.publisher.events))
	for _, e := range f.publisher.events {
		ops = append(ops, e.Op)
	}
	assert.Equal(t, []model.BookingOp{model.OpAccept, model.OpStart, model.OpComplete}, ops)
}

func TestCancel_NoAccrual(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(60))
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, b.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.CompletedCount)
	assert.Zero(t, stats.TotalRevenue)

	_, err = f.svc.Cancel(ctx, b.ID)
	requireInvalidTransition(t, err, model.StatusCancelled, model.OpCancel)
}

func TestReject_RemovesAndNotifies(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(45))
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, b.ID, "  Indisponible   ce jour ")
	require.NoError(t, err)

	require.Len(t, f.publisher.notices, 1)
	assert.Equal(t, model.RejectionNotice{BookingID: b.ID, Reason: "Indisponible ce jour"}, f.publisher.notices[0])
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.pending))

	_, err = f.svc.GetByID(ctx, b.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.AsAppError(err).StatusCode())

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
}

func TestReject_OnlyPending(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(45))
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, b.ID, "trop tard")
	requireInvalidTransition(t, err, model.StatusConfirmed, model.OpReject)
	assert.Empty(t, f.publisher.notices)

	still, err := f.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, still.Status)
}

func TestReject_NotificationFailureIsLogged(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	f.publisher.notifyErr = errors.New("broker down")
	ctx := context.Background()

	b, err := f.svc.Create(ctx, intake(45))
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, b.ID, "complet")
	require.NoError(t, err)
}

func TestApply_StatusChangedAfterCheck(t *testing.T) {
	id := "5b0c1f1e-8f4a-4a43-9d55-3a1f0c2d7e11"
	repo := &mockBookingRepository{
		findByIDFunc: func(_ context.Context, _ string) (*model.ProviderBooking, error) {
			return &model.ProviderBooking{ID: id, Status: model.StatusPending}, nil
		},
		transitionFunc: func(_ context.Context, _ string, _ []model.CanonicalStatus, _ model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error) {
			return nil, "", &bookingserrors.StatusMismatchError{Current: model.StatusCancelled}
		},
	}
	f := newFixture(t, repo)
	f.metrics.setPending(1)

	_, err := f.svc.Accept(context.Background(), id)
	requireInvalidTransition(t, err, model.StatusCancelled, model.OpAccept)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.pending))
	assert.Empty(t, f.publisher.events)
}

func TestApply_UnknownBooking(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())

	_, err := f.svc.Accept(context.Background(), "5b0c1f1e-8f4a-4a43-9d55-3a1f0c2d7e11")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.AsAppError(err).StatusCode())

	_, err = f.svc.Accept(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
}

func TestList_SearchAndStatus(t *testing.T) {
	f := newFixture(t, repository.NewMemoryBookingRepository())
	ctx := context.Background()

	first := intake(30)
	first.ServiceLabel = "Plomberie"
	first.Notes = ""
	second := intake(40)
	second.ServiceLabel = "Jardinage"
	second.Notes = "Haie à tailler"

	b1, err := f.svc.Create(ctx, first)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, second)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, b1.ID)
	require.NoError(t, err)

	all, total, err := f.svc.List(ctx, "", "all", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	confirmed, total, err := f.svc.List(ctx, "", "confirmed", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, b1.ID, confirmed[0].ID)

	byNotes, _, err := f.svc.List(ctx, "HAIE", "", 0, 0)
	require.NoError(t, err)
	require.Len(t, byNotes, 1)
	assert.Equal(t, "Jardinage", byNotes[0].ServiceLabel)

	_, _, err = f.svc.List(ctx, "", "archived", 0, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
}

func TestSyncMetrics(t *testing.T) {
	repo := repository.NewMemoryBookingRepository()
	f := newFixture(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, intake(10))
		require.NoError(t, err)
	}

	restarted := newFixture(t, repo)
	require.NoError(t, restarted.svc.SyncMetrics(ctx))
	assert.Equal(t, 3.0, testutil.ToFloat64(restarted.metrics.pending))
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(model.OpCancel, model.StatusInProgress))
	assert.False(t, Allowed(model.OpCancel, model.StatusCompleted))
	assert.False(t, Allowed(model.OpReject, model.StatusConfirmed))
	assert.False(t, Allowed(model.BookingOp("archive"), model.StatusPending))
}
