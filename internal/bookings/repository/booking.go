package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "marketplace/internal/bookings/errors"
	"marketplace/pkg/config"
	mongotx "marketplace/pkg/db/mongo"
	"marketplace/pkg/model"
)

const (
	CollectionName       = "ProviderBookings"
	LedgerCollectionName = "BookingLedger"

	ledgerID = "provider"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.ProviderBooking) error
	FindByID(ctx context.Context, id string) (*model.ProviderBooking, error)
	// FindAll returns bookings ordered by scheduled time. An empty status
	// returns every booking.
	FindAll(ctx context.Context, status model.CanonicalStatus) ([]*model.ProviderBooking, error)
	// Transition moves the booking to `to` only if its current status is one
	// of `from`. It returns the updated booking and the status it left.
	// A booking outside `from` yields *StatusMismatchError.
	Transition(ctx context.Context, id string, from []model.CanonicalStatus, to model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error)
	// Complete moves an in_progress booking to completed and accrues the
	// ledger in the same atomic step.
	Complete(ctx context.Context, id string) (*model.ProviderBooking, error)
	// RemovePending deletes a booking that is still pending.
	RemovePending(ctx context.Context, id string) (*model.ProviderBooking, error)
	CountByStatus(ctx context.Context, status model.CanonicalStatus) (int64, error)
	Ledger(ctx context.Context) (model.RevenueLedger, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	ledger     *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		ledger:     db.Collection(LedgerCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it is a SessionContext,
// which cannot be wrapped without leaving the transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.ProviderBooking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.ProviderBooking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.ProviderBooking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, status model.CanonicalStatus) ([]*model.ProviderBooking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "scheduled_at", Value: 1},
		{Key: "created_at", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.ProviderBooking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Transition(ctx context.Context, id string, from []model.CanonicalStatus, to model.CanonicalStatus) (*model.ProviderBooking, model.CanonicalStatus, error) {
	if err := validateID(id); err != nil {
		return nil, "", err
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before model.ProviderBooking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", r.mismatch(ctx, id)
		}
		return nil, "", fmt.Errorf("failed to transition booking: %w", err)
	}

	previous := before.Status
	before.Status = to
	before.UpdatedAt = now
	return &before, previous, nil
}

func (r *mongoBookingRepository) Complete(ctx context.Context, id string) (*model.ProviderBooking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var completed *model.ProviderBooking
	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, _, err := r.Transition(sessCtx, id, []model.CanonicalStatus{model.StatusInProgress}, model.StatusCompleted)
		if err != nil {
			return err
		}

		inc := bson.M{"$inc": bson.M{
			"total_revenue":    booking.Price,
			"total_commission": booking.Commission,
			"completed_count":  int64(1),
		}}
		if _, err := r.ledger.UpdateOne(sessCtx, bson.M{"_id": ledgerID}, inc, options.Update().SetUpsert(true)); err != nil {
			return fmt.Errorf("failed to accrue ledger: %w", err)
		}

		completed = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (r *mongoBookingRepository) RemovePending(ctx context.Context, id string) (*model.ProviderBooking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var removed model.ProviderBooking
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id, "status": model.StatusPending}).Decode(&removed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.mismatch(ctx, id)
		}
		return nil, fmt.Errorf("failed to remove booking: %w", err)
	}
	return &removed, nil
}

// mismatch tells a missing booking apart from one in an unexpected status
// after a filtered write matched nothing.
func (r *mongoBookingRepository) mismatch(ctx context.Context, id string) error {
	var current struct {
		Status model.CanonicalStatus `bson:"status"`
	}
	opts := options.FindOne().SetProjection(bson.M{"status": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&current)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return bookingserrors.ErrNotFound
		}
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	return &bookingserrors.StatusMismatchError{Current: current.Status}
}

func (r *mongoBookingRepository) CountByStatus(ctx context.Context, status model.CanonicalStatus) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) Ledger(ctx context.Context) (model.RevenueLedger, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var ledger model.RevenueLedger
	err := r.ledger.FindOne(ctx, bson.M{"_id": ledgerID}).Decode(&ledger)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.RevenueLedger{}, nil
		}
		return model.RevenueLedger{}, fmt.Errorf("failed to read ledger: %w", err)
	}
	return ledger, nil
}
