package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketplace/pkg/model"
)

// BookingClient drives the provider bookings service.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string, timeout time.Duration) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl, timeout),
	}
}

type Metadata struct {
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

func (c *BookingClient) Create(ctx context.Context, intake model.BookingIntake, idempotencyKey string) (*model.ProviderBooking, error) {
	const path = "/api/v1/bookings"
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	resp, err := c.httpClient.POST(ctx, path, intake, headers)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPost, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*model.ProviderBooking](resp)
}

func (c *BookingClient) List(ctx context.Context, search, status string, limit int, offset int64) ([]*model.ProviderBooking, *Metadata, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.FormatInt(offset, 10))

	path := "/api/v1/bookings?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, nil, err
	}
	return c.DecodeBookings(resp)
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.ProviderBooking, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id)
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*model.ProviderBooking](resp)
}

func (c *BookingClient) Stats(ctx context.Context) (*model.ProviderStats, error) {
	const path = "/api/v1/bookings/stats"
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*model.ProviderStats](resp)
}

// Transition applies a lifecycle operation. reason is only sent for reject.
// A rejected booking is removed, so the returned booking is nil in that case.
func (c *BookingClient) Transition(ctx context.Context, id string, op model.BookingOp, reason string) (*model.ProviderBooking, error) {
	path := "/api/v1/bookings/" + url.PathEscape(id) + "/" + string(op)
	var body any
	if op == model.OpReject {
		body = map[string]string{"reason": reason}
	}
	resp, err := c.httpClient.POST(ctx, path, body, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPost, path, resp); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return decodeData[*model.ProviderBooking](resp)
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.ProviderBooking, *Metadata, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
		Metadata
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.ProviderBooking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	return bookings, &wrapper.Metadata, nil
}

func decodeData[T any](resp *Response) (T, error) {
	var wrapper struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		var zero T
		return zero, fmt.Errorf("could not decode response data:\n%+v\n%s", resp.ToString(), err)
	}
	return wrapper.Data, nil
}
