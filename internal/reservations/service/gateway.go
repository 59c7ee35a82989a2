package service

import (
	"context"

	"marketplace/pkg/client"
	"marketplace/pkg/model"
)

// Gateway is the slice of the marketplace backend the aggregator depends on.
// *client.MarketplaceClient satisfies it.
type Gateway interface {
	ListLodging(ctx context.Context, creds client.Credentials, status string) ([]model.LodgingBooking, error)
	CancelLodging(ctx context.Context, creds client.Credentials, id string) error
	ListAppointments(ctx context.Context, creds client.Credentials) ([]model.ServiceAppointment, error)
	CancelAppointment(ctx context.Context, creds client.Credentials, id string) error
	ListTickets(ctx context.Context, creds client.Credentials, status string) ([]model.TicketBooking, error)
	CancelTicket(ctx context.Context, creds client.Credentials, id string) error
	ListFlights(ctx context.Context, creds client.Credentials) ([]model.FlightReservation, error)
	CancelFlight(ctx context.Context, creds client.Credentials, id string) error
}

var _ Gateway = (*client.MarketplaceClient)(nil)

// Notifier receives the user-visible outcome of loads and mutations.
type Notifier interface {
	Error(domain model.Domain, message string)
	Info(domain model.Domain, message string)
}

// serverFiltered domains take the status filter as a query parameter; the
// others are filtered in memory.
func serverFiltered(d model.Domain) bool {
	return d == model.DomainLodging || d == model.DomainTicket
}
