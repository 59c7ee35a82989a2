package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "marketplace/internal/bookings/errors"
	"marketplace/pkg/model"
)

// memoryBookingRepository keeps bookings in process. Every method holds the
// mutex for its whole body, which makes Transition and Complete atomic.
type memoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]model.ProviderBooking
	ledger   model.RevenueLedger
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings: make(map[string]model.ProviderBooking),
	}
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *model.ProviderBooking) error {
	if err := validateID(booking.ID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings[booking.ID] = *booking
	return nil
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id string) (*model.ProviderBooking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return &b, nil
}

func (r *memoryBookingRepository) FindAll(_ context.Context, status model.CanonicalStatus) ([]*model.ProviderBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.ProviderBooking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if status != "" && b.Status != status {
			continue
		}
		b := b
		out = append(out, &b)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryBookingRepository) Transition(_ context.Context, id string, from []model.CanonicalStatus, to model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error) {
	if err := validateID(id); err != nil {
		return nil, "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.transitionLocked(id, from, to)
}

func (r *memoryBookingRepository) transitionLocked(id string, from []model.CanonicalStatus, to model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, "", bookingserrors.ErrNotFound
	}
	if !slices.Contains(from, b.Status) {
		return nil, "", &bookingserrors.StatusMismatchError{Current: b.Status}
	}

	previous := b.Status
	b.Status = to
	b.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.bookings[id] = b
	return &b, previous, nil
}

func (r *memoryBookingRepository) Complete(_ context.Context, id string) (*model.ProviderBooking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, _, err := r.transitionLocked(id, []model.CanonicalStatus{model.StatusInProgress}, model.StatusCompleted)
	if err != nil {
		return nil, err
	}

	r.ledger.TotalRevenue += b.Price
	r.ledger.TotalCommission += b.Commission
	r.ledger.CompletedCount++
	return b, nil
}

func (r *memoryBookingRepository) RemovePending(_ context.Context, id string) (*model.ProviderBooking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != model.StatusPending {
		return nil, &bookingserrors.StatusMismatchError{Current: b.Status}
	}
	delete(r.bookings, id)
	return &b, nil
}

func (r *memoryBookingRepository) CountByStatus(_ context.Context, status model.CanonicalStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, b := range r.bookings {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memoryBookingRepository) Ledger(_ context.Context) (model.RevenueLedger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ledger, nil
}
