package app

import (
	"context"
	"net/http"
	"time"

	httputil "marketplace/pkg/http"
	"marketplace/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Handler is implemented by every service handler mounted on the app router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Pinger reports whether the backing connections are usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status       string `json:"status"`
	Dependencies string `json:"dependencies,omitempty"`
}

type HealthHandler struct {
	pinger Pinger
	log    *logger.Logger
}

func NewHealthHandler(pinger Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{pinger: pinger, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, "Health", http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Error("Dependency health check failed", "error", err, "path", r.URL.Path)
		h.write(w, "Ready", http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Dependencies: "error"})
		return
	}
	h.write(w, "Ready", http.StatusOK, HealthResponse{Status: "ready", Dependencies: "ok"})
}

func (h *HealthHandler) write(w http.ResponseWriter, handlerName string, status int, body HealthResponse) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
