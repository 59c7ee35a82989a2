package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"marketplace/pkg/model"
	"marketplace/pkg/notify"
)

// ReservationClient drives the customer reservations service with a session
// token obtained from OpenSession.
type ReservationClient struct {
	httpClient *HttpClient
}

func NewReservationClient(baseUrl string, timeout time.Duration) *ReservationClient {
	return &ReservationClient{
		httpClient: NewHttpClient(baseUrl, timeout),
	}
}

type SessionInfo struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PanelView struct {
	Domain       model.Domain     `json:"domain"`
	Loading      bool             `json:"loading"`
	Error        string           `json:"error,omitempty"`
	StatusFilter string           `json:"status_filter"`
	Cards        []model.CardView `json:"cards"`
}

// SetSession makes every later call carry the session token.
func (c *ReservationClient) SetSession(token string) {
	c.httpClient.Headers["Authorization"] = "Bearer " + token
}

func (c *ReservationClient) OpenSession(ctx context.Context, userID, backendToken string) (*SessionInfo, error) {
	const path = "/api/v1/session"
	body := map[string]string{"user_id": userID, "token": backendToken}
	resp, err := c.httpClient.POST(ctx, path, body, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPost, path, resp); err != nil {
		return nil, err
	}
	info, err := decodeData[*SessionInfo](resp)
	if err != nil {
		return nil, err
	}
	c.SetSession(info.Token)
	return info, nil
}

func (c *ReservationClient) CloseSession(ctx context.Context) error {
	const path = "/api/v1/session"
	resp, err := c.httpClient.DELETE(ctx, path, nil)
	if err != nil {
		return err
	}
	delete(c.httpClient.Headers, "Authorization")
	return expectOK(http.MethodDelete, path, resp)
}

func (c *ReservationClient) Load(ctx context.Context) ([]PanelView, error) {
	const path = "/api/v1/reservations"
	resp, err := c.httpClient.POST(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPost, path, resp); err != nil {
		return nil, err
	}
	return decodeData[[]PanelView](resp)
}

func (c *ReservationClient) Panel(ctx context.Context, domain model.Domain, search string) (*PanelView, error) {
	path := "/api/v1/reservations/" + url.PathEscape(string(domain))
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*PanelView](resp)
}

func (c *ReservationClient) SetFilter(ctx context.Context, domain model.Domain, status string) (*PanelView, error) {
	path := "/api/v1/reservations/" + url.PathEscape(string(domain)) + "/filter"
	resp, err := c.httpClient.PUT(ctx, path, map[string]string{"status": status}, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPut, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*PanelView](resp)
}

func (c *ReservationClient) Cancel(ctx context.Context, domain model.Domain, id string) (*model.CardView, error) {
	path := "/api/v1/reservations/" + url.PathEscape(string(domain)) + "/" + url.PathEscape(id) + "/cancel"
	resp, err := c.httpClient.POST(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPost, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*model.CardView](resp)
}

func (c *ReservationClient) Notifications(ctx context.Context) ([]notify.Toast, error) {
	const path = "/api/v1/notifications"
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	return decodeData[[]notify.Toast](resp)
}
