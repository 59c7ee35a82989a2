package adapter

import (
	"errors"
	"testing"
	"time"

	reserrors "marketplace/internal/reservations/errors"
	"marketplace/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStatus_TotalAndDeterministic(t *testing.T) {
	for _, domain := range model.Domains {
		for _, raw := range Vocabulary(domain) {
			first, err := MapStatus(domain, raw)
			require.NoError(t, err, "%s/%s", domain, raw)
			second, err := MapStatus(domain, raw)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			_, known := model.ParseCanonicalStatus(string(first))
			assert.True(t, known, "%s/%s mapped to %q", domain, raw, first)
		}
	}
}

func TestMapStatus_Vocabularies(t *testing.T) {
	tests := []struct {
		domain model.Domain
		raw    string
		want   model.CanonicalStatus
	}{
		{model.DomainLodging, "en_attente", model.StatusPending},
		{model.DomainLodging, "confirmee", model.StatusConfirmed},
		{model.DomainLodging, "terminee", model.StatusCompleted},
		{model.DomainLodging, "annulee", model.StatusCancelled},
		{model.DomainService, "completed", model.StatusCompleted},
		{model.DomainTicket, "pending", model.StatusPending},
		{model.DomainFlight, "paid", model.StatusConfirmed},
		{model.DomainFlight, "failed", model.StatusCancelled},
		{model.DomainFlight, "refunded", model.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(string(tt.domain)+"/"+tt.raw, func(t *testing.T) {
			got, err := MapStatus(tt.domain, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapStatus_UnknownIsHardError(t *testing.T) {
	_, err := MapStatus(model.DomainLodging, "pending")
	assert.True(t, errors.Is(err, reserrors.ErrUnknownStatus))

	_, err = MapStatus(model.DomainService, "paid")
	assert.True(t, errors.Is(err, reserrors.ErrUnknownStatus))

	_, err = MapStatus("cruise", "pending")
	assert.True(t, errors.Is(err, reserrors.ErrUnknownDomain))
}

func TestIsCancelable(t *testing.T) {
	for _, domain := range model.Domains {
		for _, raw := range Vocabulary(domain) {
			canonical, err := MapStatus(domain, raw)
			require.NoError(t, err)
			want := canonical != model.StatusCompleted && canonical != model.StatusCancelled
			assert.Equal(t, want, IsCancelable(domain, raw), "%s/%s", domain, raw)
		}
	}
	assert.False(t, IsCancelable(model.DomainFlight, "lost"))
}

func TestRawFor(t *testing.T) {
	raw, err := RawFor(model.DomainLodging, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, "annulee", raw)

	raw, err = RawFor(model.DomainFlight, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", raw)

	_, err = RawFor(model.DomainTicket, model.StatusInProgress)
	assert.True(t, errors.Is(err, reserrors.ErrUnknownStatus))
}

func TestRecord(t *testing.T) {
	dep := time.Date(2025, 8, 1, 7, 30, 0, 0, time.UTC)
	rec, err := Record(model.FlightReservation{
		ID:              "f1",
		Vol:             &model.Flight{Prix: 99.99, DateDepart: model.Date{Time: dep}},
		NombrePassagers: 2,
		Status:          "paid",
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", rec.ID)
	assert.Equal(t, model.DomainFlight, rec.Domain)
	assert.Equal(t, model.StatusConfirmed, rec.CanonicalStatus)
	assert.Equal(t, "paid", rec.RawStatus)
	assert.Equal(t, 199.98, rec.Amount)
	assert.True(t, rec.ScheduledAt.Equal(dep))
	assert.True(t, rec.Cancelable())

	_, err = Record(model.TicketBooking{ID: "t1", Status: "annulee"})
	assert.True(t, errors.Is(err, reserrors.ErrUnknownStatus))
}

func TestRecords_FailsBatchOnUnknownStatus(t *testing.T) {
	recs, err := Records([]model.ServiceAppointment{
		{ID: "s1", Status: "pending"},
		{ID: "s2", Status: "completed"},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[1].Cancelable())

	_, err = Records([]model.ServiceAppointment{{ID: "s1", Status: "pending"}, {ID: "s3", Status: "weird"}})
	assert.Error(t, err)
}
