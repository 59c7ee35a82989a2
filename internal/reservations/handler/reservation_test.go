package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/reservations/projection"
	"marketplace/internal/reservations/service"
	"marketplace/pkg/client"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
	"marketplace/pkg/session"
)

// fakeBackend serves the marketplace REST surface with canned data.
func fakeBackend(t *testing.T, flightsDown bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var cancels atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer backend-jwt", r.Header.Get("Authorization"))
		assert.Equal(t, "user-1", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"_id":"l1","property":{"title":"Villa Bambou","city":"Saint-Leu"},"checkIn":"2025-07-14","checkOut":"2025-07-16","guests":2,"totalPrice":240,"status":"confirmee"}]}`))
	})
	mux.HandleFunc("/user/bookings/l1/cancel", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		cancels.Add(1)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/appointment/appointment", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"s1","service":{"name":"Massage"},"date":"2025-05-02","time":"10:00","price":60,"status":"completed"}]`))
	})
	mux.HandleFunc("/touristic-place-bookings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/Vol/reservations", func(w http.ResponseWriter, r *http.Request) {
		if flightsDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"maintenance"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &cancels
}

func newRouter(t *testing.T, backendURL string) *httprouter.Router {
	t.Helper()
	log := logger.Discard()
	manager := service.NewManager(service.AggregatorDeps{
		Gateway:   client.NewMarketplaceClient(backendURL, 5*time.Second),
		Projector: projection.New(""),
		Log:       log,
	}, session.NewRegistry[*service.Workspace](time.Hour))

	router := httprouter.New()
	NewReservationHandler(manager, log).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func openSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/v1/session", "", `{"user_id":"user-1","token":"backend-jwt"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestReservationFlow(t *testing.T) {
	backend, cancels := fakeBackend(t, true)
	router := newRouter(t, backend.URL)
	token := openSession(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/reservations", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loaded struct {
		Data []panelResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	require.Len(t, loaded.Data, 4)
	assert.Equal(t, model.DomainLodging, loaded.Data[0].Domain)
	require.Len(t, loaded.Data[0].Cards, 1)
	assert.Equal(t, "Villa Bambou", loaded.Data[0].Cards[0].Title)
	assert.Empty(t, loaded.Data[0].Error)
	assert.NotEmpty(t, loaded.Data[3].Error)
	assert.Empty(t, loaded.Data[3].Cards)

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/service/s1/cancel", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/lodging/l1/cancel", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), cancels.Load())

	rec = do(t, router, http.MethodGet, "/api/v1/reservations/lodging?search=bambou", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var panel struct {
		Data panelResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &panel))
	require.Len(t, panel.Data.Cards, 1)
	assert.Equal(t, model.StatusCancelled, panel.Data.Cards[0].Status)
	assert.False(t, panel.Data.Cards[0].Cancelable)

	rec = do(t, router, http.MethodGet, "/api/v1/notifications", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var toasts struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toasts))
	assert.Len(t, toasts.Data, 2)
}

func TestSetFilter_InvalidStatus(t *testing.T) {
	backend, _ := fakeBackend(t, false)
	router := newRouter(t, backend.URL)
	token := openSession(t, router)

	rec := do(t, router, http.MethodPut, "/api/v1/reservations/lodging/filter", token, `{"status":"in_progress"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/v1/reservations/service/filter", token, `{"status":"completed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations/cruise", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionRequired(t *testing.T) {
	backend, _ := fakeBackend(t, false)
	router := newRouter(t, backend.URL)

	rec := do(t, router, http.MethodGet, "/api/v1/reservations", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := openSession(t, router)
	rec = do(t, router, http.MethodDelete, "/api/v1/session", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoad_PanelsReadableBeforeSlowestDomain(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }

	mux := http.NewServeMux()
	mux.HandleFunc("/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"l1","property":"64ab12","checkIn":"2025-07-14","totalPrice":240,"status":"confirmee"}]`))
	})
	mux.HandleFunc("/appointment/appointment", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/touristic-place-bookings", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/Vol/reservations", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[]`))
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)
	t.Cleanup(unblock)

	router := newRouter(t, backend.URL)
	token := openSession(t, router)

	loaded := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		loaded <- do(t, router, http.MethodPost, "/api/v1/reservations", token, "")
	}()

	readPanel := func(domain string) panelResponse {
		rec := do(t, router, http.MethodGet, "/api/v1/reservations/"+domain, token, "")
		var resp struct {
			Data panelResponse `json:"data"`
		}
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &resp) != nil {
			return panelResponse{}
		}
		return resp.Data
	}

	require.Eventually(t, func() bool {
		lodging := readPanel("lodging")
		return !lodging.Loading && len(lodging.Cards) == 1 && readPanel("flight").Loading
	}, 2*time.Second, 10*time.Millisecond)

	lodging := readPanel("lodging")
	assert.Equal(t, "Logement", lodging.Cards[0].Title)

	select {
	case <-loaded:
		t.Fatal("load replied before the slowest domain settled")
	default:
	}

	unblock()
	select {
	case rec := <-loaded:
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	case <-time.After(2 * time.Second):
		t.Fatal("load did not return")
	}
	assert.False(t, readPanel("flight").Loading)
}
