package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookinghandler "marketplace/internal/bookings/handler"
	bookingrepo "marketplace/internal/bookings/repository"
	bookingservice "marketplace/internal/bookings/service"
	bookingvalidator "marketplace/internal/bookings/validator"
	cataloghandler "marketplace/internal/catalog/handler"
	catalogrepo "marketplace/internal/catalog/repository"
	catalogservice "marketplace/internal/catalog/service"
	catalogvalidator "marketplace/internal/catalog/validator"
	"marketplace/pkg/config"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
	"marketplace/pkg/stats"
)

func newBookingsServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	svc := bookingservice.NewBookingService(
		bookingrepo.NewMemoryBookingRepository(),
		bookingvalidator.NewBookingValidator(log),
		bookingservice.FlatRate(0.10),
		nil,
		nil,
		&config.Config{Log: log},
	)
	router := httprouter.New()
	bookinghandler.NewBookingHandler(svc, log).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	svc := catalogservice.NewCatalogService(
		catalogrepo.NewMemoryCatalogRepository(),
		catalogvalidator.NewCatalogValidator(log),
		&config.Config{Log: log},
	)
	router := httprouter.New()
	cataloghandler.NewCatalogHandler(svc, log).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBookingsCommands(t *testing.T) {
	srv := newBookingsServer(t)

	out, err := run(t, "bookings", "create", "--bookings-url", srv.URL,
		"--customer", "Léa Martin", "--service", "Cours de surf",
		"--price", "120", "--at", "2026-08-01T08:00:00Z")
	require.NoError(t, err)

	var created model.ProviderBooking
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, model.StatusPending, created.Status)
	assert.InDelta(t, 12.0, created.Commission, 0.001)

	for _, op := range []string{"accept", "start", "complete"} {
		_, err := run(t, "bookings", op, created.ID, "--bookings-url", srv.URL)
		require.NoError(t, err, op)
	}

	out, err = run(t, "bookings", "stats", "--bookings-url", srv.URL)
	require.NoError(t, err)
	var st model.ProviderStats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, int64(1), st.CompletedCount)
	assert.InDelta(t, 108.0, st.NetRevenue, 0.001)

	out, err = run(t, "bookings", "list", "--bookings-url", srv.URL, "--status", "completed")
	require.NoError(t, err)
	var listed struct {
		Data []model.ProviderBooking `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, created.ID, listed.Data[0].ID)
}

func TestBookingsCommands_InvalidTransitionFails(t *testing.T) {
	srv := newBookingsServer(t)

	out, err := run(t, "bookings", "create", "--bookings-url", srv.URL,
		"--customer", "Léa Martin", "--service", "Cours de surf",
		"--price", "80", "--at", "2026-08-01T08:00:00Z")
	require.NoError(t, err)
	var created model.ProviderBooking
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	_, err = run(t, "bookings", "complete", created.ID, "--bookings-url", srv.URL)
	assert.Error(t, err)

	out, err = run(t, "bookings", "reject", created.ID, "--bookings-url", srv.URL, "--reason", "Complet")
	require.NoError(t, err)
	assert.Contains(t, out, "rejected "+created.ID)

	_, err = run(t, "bookings", "get", created.ID, "--bookings-url", srv.URL)
	assert.Error(t, err)
}

func TestBookingsCreate_RequiresRFC3339Time(t *testing.T) {
	_, err := run(t, "bookings", "create", "--bookings-url", "http://127.0.0.1:1",
		"--customer", "Léa Martin", "--service", "Cours", "--at", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFC3339")
}

func TestCatalogCommands(t *testing.T) {
	srv := newCatalogServer(t)

	out, err := run(t, "catalog", "create", "--catalog-url", srv.URL, "--kind", "discovery",
		"--title", "Randonnée calanques", "--date", "2030-05-01T09:00:00Z",
		"--capacity", "20", "--participants", "5", "--category", "outdoor", "--tags", "mer,marche")
	require.NoError(t, err)
	var entry struct {
		model.CatalogItem
		FillPercentage float64 `json:"fill_percentage"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, model.KindDiscovery, entry.Kind)
	assert.Equal(t, "active", entry.Status)
	assert.InDelta(t, 25.0, entry.FillPercentage, 0.001)

	out, err = run(t, "catalog", "stats", "--catalog-url", srv.URL, "--kind", "discovery")
	require.NoError(t, err)
	var summary stats.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, "mer", summary.PopularCategory)

	out, err = run(t, "catalog", "list", "--catalog-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"data": []`)
}

func TestCatalogCommands_UnknownKind(t *testing.T) {
	_, err := run(t, "catalog", "stats", "--kind", "concert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestReservationsCommands_RequireCredentials(t *testing.T) {
	t.Setenv("MARKETPLACE_USER", "")
	t.Setenv("MARKETPLACE_TOKEN", "")
	_, err := run(t, "reservations", "load", "--reservations-url", "http://127.0.0.1:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user and --token")

	_, err = run(t, "reservations", "panel", "boat", "--user", "u", "--token", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}

func TestWaitCommand(t *testing.T) {
	router := httprouter.New()
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	out, err := run(t, "wait", "bookings", "--bookings-url", srv.URL, "--max", "2s")
	require.NoError(t, err)
	assert.Equal(t, "bookings healthy\n", out)

	_, err = run(t, "wait", "billing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")
}
