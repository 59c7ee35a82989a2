package model

import (
	"time"
)

// BookingOp names a provider-side lifecycle operation.
type BookingOp string

const (
	OpAccept   BookingOp = "accept"
	OpReject   BookingOp = "reject"
	OpStart    BookingOp = "start"
	OpComplete BookingOp = "complete"
	OpCancel   BookingOp = "cancel"
)

var BookingOps = []BookingOp{OpAccept, OpReject, OpStart, OpComplete, OpCancel}

func ParseBookingOp(s string) (BookingOp, bool) {
	for _, op := range BookingOps {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// ProviderBooking is a booking the professional controls directly.
// Commission is fixed at intake and never recomputed.
type ProviderBooking struct {
	ID            string          `json:"id" bson:"_id" validate:"required,uuid4"`
	CustomerName  string          `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone string          `json:"customer_phone,omitempty" bson:"customer_phone,omitempty" validate:"omitempty,e164"`
	ServiceLabel  string          `json:"service_label" bson:"service_label" validate:"required,min=2,max=100"`
	Notes         string          `json:"notes,omitempty" bson:"notes,omitempty" validate:"max=500"`
	Price         float64         `json:"price" bson:"price" validate:"gte=0"`
	Commission    float64         `json:"commission" bson:"commission" validate:"gte=0,ltefield=Price"`
	Status        CanonicalStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed in_progress completed cancelled"`
	ScheduledAt   time.Time       `json:"scheduled_at" bson:"scheduled_at" validate:"required"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// NetRevenue is what the professional keeps after the platform commission.
func (b *ProviderBooking) NetRevenue() float64 {
	return RoundCurrency(b.Price - b.Commission)
}

func (b *ProviderBooking) SearchTitle() string       { return b.ServiceLabel }
func (b *ProviderBooking) SearchDescription() string { return b.CustomerName + " " + b.Notes }
func (b *ProviderBooking) FilterStatus() string      { return string(b.Status) }

// BookingIntake is the payload a new provider booking is created from.
type BookingIntake struct {
	CustomerName  string    `json:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone string    `json:"customer_phone,omitempty" validate:"omitempty"`
	ServiceLabel  string    `json:"service_label" validate:"required,min=2,max=100"`
	Notes         string    `json:"notes,omitempty" validate:"max=500"`
	Price         float64   `json:"price" validate:"currency"`
	ScheduledAt   time.Time `json:"scheduled_at" validate:"required"`
}

// RejectionNotice is handed to the notification collaborator on reject.
type RejectionNotice struct {
	BookingID string `json:"bookingId"`
	Reason    string `json:"reason"`
}

// RevenueLedger accumulates the outcome of completed bookings.
type RevenueLedger struct {
	TotalRevenue    float64 `json:"total_revenue" bson:"total_revenue"`
	TotalCommission float64 `json:"total_commission" bson:"total_commission"`
	CompletedCount  int64   `json:"completed_count" bson:"completed_count"`
}

type ProviderStats struct {
	PendingCount    int64   `json:"pending_count"`
	CompletedCount  int64   `json:"completed_count"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalCommission float64 `json:"total_commission"`
	NetRevenue      float64 `json:"net_revenue"`
}

// BookingEvent is published whenever a provider booking changes state.
type BookingEvent struct {
	BookingID  string          `json:"booking_id"`
	Op         BookingOp       `json:"op"`
	From       CanonicalStatus `json:"from"`
	To         CanonicalStatus `json:"to,omitempty"`
	Price      float64         `json:"price"`
	Commission float64         `json:"commission"`
	OccurredAt time.Time       `json:"occurred_at"`
}
