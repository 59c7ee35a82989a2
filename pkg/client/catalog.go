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
	"marketplace/pkg/stats"
)

// CatalogClient drives the events and discoveries management service.
type CatalogClient struct {
	httpClient *HttpClient
}

func NewCatalogClient(baseUrl string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		httpClient: NewHttpClient(baseUrl, timeout),
	}
}

// CatalogEntry is a catalog item as served, with its fill level.
type CatalogEntry struct {
	model.CatalogItem
	FillPercentage float64 `json:"fill_percentage"`
}

func collectionPath(kind model.CatalogKind) string {
	if kind == model.KindDiscovery {
		return "/api/v1/discoveries"
	}
	return "/api/v1/events"
}

func (c *CatalogClient) Create(ctx context.Context, kind model.CatalogKind, input model.CatalogInput) (*CatalogEntry, error) {
	path := collectionPath(kind)
	resp, err := c.httpClient.POST(ctx, path, input, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodPost, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*CatalogEntry](resp)
}

func (c *CatalogClient) List(ctx context.Context, kind model.CatalogKind, search, status string, limit int, offset int64) ([]CatalogEntry, *Metadata, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.FormatInt(offset, 10))

	path := collectionPath(kind) + "?" + q.Encode()
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, nil, err
	}

	var wrapper struct {
		Data []CatalogEntry `json:"data"`
		Metadata
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode catalog list:\n%+v\n%s", resp.ToString(), err)
	}
	return wrapper.Data, &wrapper.Metadata, nil
}

func (c *CatalogClient) Stats(ctx context.Context, kind model.CatalogKind) (*stats.Summary, error) {
	path := "/api/v1/catalog/stats?kind=" + url.QueryEscape(string(kind))
	resp, err := c.httpClient.GET(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if err := expectOK(http.MethodGet, path, resp); err != nil {
		return nil, err
	}
	return decodeData[*stats.Summary](resp)
}
