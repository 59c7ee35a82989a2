package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/bookings/repository"
	"marketplace/internal/bookings/service"
	"marketplace/internal/bookings/validator"
	"marketplace/pkg/client"
	"marketplace/pkg/config"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{Log: log}
	svc := service.NewBookingService(
		repository.NewMemoryBookingRepository(),
		validator.NewBookingValidator(log),
		service.FlatRate(0.10),
		nil,
		nil,
		cfg,
	)

	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func sampleIntake() model.BookingIntake {
	return model.BookingIntake{
		CustomerName: "Léa Martin",
		ServiceLabel: "Cours de surf",
		Price:        120,
		ScheduledAt:  time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	c := client.NewBookingClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	created, err := c.Create(ctx, sampleIntake(), "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, 12.0, created.Commission)

	for _, op := range []model.BookingOp{model.OpAccept, model.OpStart, model.OpComplete} {
		b, err := c.Transition(ctx, created.ID, op, "")
		require.NoError(t, err, "op %s", op)
		require.NotNil(t, b)
	}

	got, err := c.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CompletedCount)
	assert.Equal(t, 108.0, stats.NetRevenue)
}

func TestTransition_InvalidReturnsConflictDetails(t *testing.T) {
	srv := newServer(t)
	c := client.NewBookingClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	created, err := c.Create(ctx, sampleIntake(), "")
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/v1/bookings/"+created.ID+"/complete", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_TRANSITION", body.Code)
	assert.Equal(t, created.ID, body.Details["booking_id"])
	assert.Equal(t, "pending", body.Details["from"])
	assert.Equal(t, "complete", body.Details["attempted_op"])
}

func TestTransition_RejectRemovesBooking(t *testing.T) {
	srv := newServer(t)
	c := client.NewBookingClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	created, err := c.Create(ctx, sampleIntake(), "")
	require.NoError(t, err)

	b, err := c.Transition(ctx, created.ID, model.OpReject, "Complet")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = c.GetByID(ctx, created.ID)
	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestTransition_UnknownAction(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/bookings/5b0c1f1e-8f4a-4a43-9d55-3a1f0c2d7e11/archive", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreate_RejectsUnknownFields(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/bookings", "application/json", strings.NewReader(`{"customer_name":"Léa","commission":0}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAll_FiltersAndPaginates(t *testing.T) {
	srv := newServer(t)
	c := client.NewBookingClient(srv.URL, 5*time.Second)
	ctx := context.Background()

	for _, label := range []string{"Cours de surf", "Location kayak", "Cours de yoga"} {
		in := sampleIntake()
		in.ServiceLabel = label
		_, err := c.Create(ctx, in, "")
		require.NoError(t, err)
	}

	bookings, meta, err := c.List(ctx, "cours", "pending", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.TotalCount)
	require.Len(t, bookings, 1)
	assert.Contains(t, bookings[0].ServiceLabel, "Cours")
}
