package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"marketplace/pkg/model"
)

// Credentials identify the customer on whose behalf the backend is called.
type Credentials struct {
	UserID string
	Token  string
}

func (c Credentials) headers() map[string]string {
	if c.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.Token}
}

// MarketplaceClient talks to the marketplace backend REST API that owns the
// four customer booking domains.
type MarketplaceClient struct {
	httpClient *HttpClient
}

func NewMarketplaceClient(baseURL string, timeout time.Duration) *MarketplaceClient {
	return &MarketplaceClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

func (c *MarketplaceClient) ListLodging(ctx context.Context, creds Credentials, status string) ([]model.LodgingBooking, error) {
	q := url.Values{}
	q.Set("userId", creds.UserID)
	if status != "" {
		q.Set("status", status)
	}
	return getList[model.LodgingBooking](ctx, c.httpClient, "/user/bookings?"+q.Encode(), creds)
}

func (c *MarketplaceClient) CancelLodging(ctx context.Context, creds Credentials, id string) error {
	path := "/user/bookings/" + url.PathEscape(id) + "/cancel"
	body := map[string]string{"userId": creds.UserID}
	resp, err := c.httpClient.PUT(ctx, path, body, creds.headers())
	if err != nil {
		return err
	}
	return expectOK(http.MethodPut, path, resp)
}

// ListAppointments has no server-side status filter.
func (c *MarketplaceClient) ListAppointments(ctx context.Context, creds Credentials) ([]model.ServiceAppointment, error) {
	return getList[model.ServiceAppointment](ctx, c.httpClient, "/appointment/appointment", creds)
}

func (c *MarketplaceClient) CancelAppointment(ctx context.Context, creds Credentials, id string) error {
	path := "/appointment/" + url.PathEscape(id) + "/cancel"
	resp, err := c.httpClient.PATCH(ctx, path, nil, creds.headers())
	if err != nil {
		return err
	}
	return expectOK(http.MethodPatch, path, resp)
}

func (c *MarketplaceClient) ListTickets(ctx context.Context, creds Credentials, status string) ([]model.TicketBooking, error) {
	q := url.Values{}
	q.Set("userId", creds.UserID)
	if status != "" {
		q.Set("status", status)
	}
	return getList[model.TicketBooking](ctx, c.httpClient, "/touristic-place-bookings?"+q.Encode(), creds)
}

// CancelTicket deletes the booking on the backend.
func (c *MarketplaceClient) CancelTicket(ctx context.Context, creds Credentials, id string) error {
	path := "/touristic-place-bookings/" + url.PathEscape(id)
	resp, err := c.httpClient.DELETE(ctx, path, creds.headers())
	if err != nil {
		return err
	}
	return expectOK(http.MethodDelete, path, resp)
}

func (c *MarketplaceClient) ListFlights(ctx context.Context, creds Credentials) ([]model.FlightReservation, error) {
	return getList[model.FlightReservation](ctx, c.httpClient, "/Vol/reservations", creds)
}

func (c *MarketplaceClient) CancelFlight(ctx context.Context, creds Credentials, id string) error {
	path := "/Vol/reservations/" + url.PathEscape(id) + "/status"
	body := map[string]string{"status": "cancelled"}
	resp, err := c.httpClient.PUT(ctx, path, body, creds.headers())
	if err != nil {
		return err
	}
	return expectOK(http.MethodPut, path, resp)
}

func getList[T any](ctx context.Context, hc *HttpClient, path string, creds Credentials) ([]T, error) {
	resp, err := hc.GET(ctx, path, creds.headers())
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	items, err := DecodeList[T](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return items, nil
}

// DecodeList accepts either a bare JSON array or a {success, data} envelope.
func DecodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("could not decode list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("could not decode list envelope: %w", err)
	}
	if envelope.Success != nil && !*envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, fmt.Errorf("list request unsuccessful: %s", msg)
	}

	items := []T{}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("could not decode list data: %w", err)
	}
	return items, nil
}
