package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	reserrors "marketplace/internal/reservations/errors"
	"marketplace/internal/reservations/service"
	apperrors "marketplace/pkg/errors"
	httputil "marketplace/pkg/http"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
	"marketplace/pkg/session"
)

type ReservationHandler struct {
	manager *service.Manager
	log     *logger.Logger
}

func NewReservationHandler(manager *service.Manager, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		manager: manager,
		log:     log,
	}
}

type openSessionRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

type filterRequest struct {
	Status string `json:"status"`
}

type panelResponse struct {
	Domain       model.Domain     `json:"domain"`
	Loading      bool             `json:"loading"`
	Error        string           `json:"error,omitempty"`
	StatusFilter string           `json:"status_filter"`
	Cards        []model.CardView `json:"cards"`
}

func (h *ReservationHandler) OpenSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req openSessionRequest
	if err := httputil.DecodeBody(r, &req, false); err != nil {
		h.writeError(w, "OpenSession", err)
		return
	}
	if req.UserID == "" {
		h.writeError(w, "OpenSession", apperrors.Validation("user_id is required", map[string]any{"field": "user_id"}))
		return
	}

	s := h.manager.Open(req.UserID, req.Token)
	if err := httputil.WriteCreated(w, sessionResponse{
		Token:     s.Token,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "OpenSession", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) CloseSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.manager.Close(httputil.BearerToken(r)); err != nil {
		h.writeError(w, "CloseSession", err)
		return
	}
	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write no content response", "handler", "CloseSession", "operation", "WriteNoContent", "error", err)
	}
}

// Load fetches every domain and returns the four panels.
// Load replies once every domain has settled. Panels commit independently, so
// GET /api/v1/reservations/:domain already serves the early ones meanwhile.
func (h *ReservationHandler) Load(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r, "Load")
	if !ok {
		return
	}

	panels := s.State.Aggregator.Load(r.Context())
	h.writeSuccess(w, "Load", h.panels(s.State.Aggregator, panels))
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r, "GetAll")
	if !ok {
		return
	}

	h.writeSuccess(w, "GetAll", h.panels(s.State.Aggregator, s.State.Aggregator.Panels()))
}

func (h *ReservationHandler) GetDomain(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r, "GetDomain")
	if !ok {
		return
	}
	domain, ok := h.domain(w, ps, "GetDomain")
	if !ok {
		return
	}

	agg := s.State.Aggregator
	snap, err := agg.Panel(domain)
	if err != nil {
		h.writeError(w, "GetDomain", err)
		return
	}
	cards, err := agg.Cards(domain, r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, "GetDomain", err)
		return
	}
	h.writeSuccess(w, "GetDomain", toPanelResponse(snap, cards))
}

func (h *ReservationHandler) SetFilter(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r, "SetFilter")
	if !ok {
		return
	}
	domain, ok := h.domain(w, ps, "SetFilter")
	if !ok {
		return
	}

	var req filterRequest
	if err := httputil.DecodeBody(r, &req, false); err != nil {
		h.writeError(w, "SetFilter", err)
		return
	}

	agg := s.State.Aggregator
	snap, err := agg.SetStatusFilter(r.Context(), domain, req.Status)
	if err != nil {
		h.writeError(w, "SetFilter", err)
		return
	}
	cards, err := agg.Cards(domain, r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, "SetFilter", err)
		return
	}
	h.writeSuccess(w, "SetFilter", toPanelResponse(snap, cards))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.session(w, r, "Cancel")
	if !ok {
		return
	}
	domain, ok := h.domain(w, ps, "Cancel")
	if !ok {
		return
	}
	id := ps.ByName("id")

	rec, err := s.State.Aggregator.Cancel(r.Context(), domain, id)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	cards := s.State.Aggregator.Project([]model.BookingRecord{rec})
	h.writeSuccess(w, "Cancel", cards[0])
}

// Notifications drains the session's pending toasts.
func (h *ReservationHandler) Notifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.session(w, r, "Notifications")
	if !ok {
		return
	}
	h.writeSuccess(w, "Notifications", s.State.Inbox.Drain())
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/session", h.OpenSession)
	router.DELETE("/api/v1/session", h.CloseSession)
	router.POST("/api/v1/reservations", h.Load)
	router.GET("/api/v1/reservations", h.GetAll)
	router.GET("/api/v1/reservations/:domain", h.GetDomain)
	router.PUT("/api/v1/reservations/:domain/filter", h.SetFilter)
	router.POST("/api/v1/reservations/:domain/:id/cancel", h.Cancel)
	router.GET("/api/v1/notifications", h.Notifications)
}

func (h *ReservationHandler) session(w http.ResponseWriter, r *http.Request, handlerName string) (*session.Session[*service.Workspace], bool) {
	s, err := h.manager.Get(httputil.BearerToken(r))
	if err != nil {
		h.writeError(w, handlerName, err)
		return nil, false
	}
	return s, true
}

func (h *ReservationHandler) domain(w http.ResponseWriter, ps httprouter.Params, handlerName string) (model.Domain, bool) {
	d, ok := model.ParseDomain(ps.ByName("domain"))
	if !ok {
		h.writeError(w, handlerName, apperrors.NotFoundWithID("Domain", ps.ByName("domain")))
		return "", false
	}
	return d, true
}

func (h *ReservationHandler) panels(agg *service.Aggregator, panels []service.Panel) []panelResponse {
	out := make([]panelResponse, 0, len(panels))
	for _, p := range panels {
		cards, err := agg.Cards(p.Domain, "")
		if err != nil {
			cards = []model.CardView{}
		}
		out = append(out, toPanelResponse(p, cards))
	}
	return out
}

func toPanelResponse(p service.Panel, cards []model.CardView) panelResponse {
	resp := panelResponse{
		Domain:       p.Domain,
		Loading:      p.Loading,
		StatusFilter: p.StatusFilter,
		Cards:        cards,
	}
	if p.Err != nil {
		resp.Error = p.Err.Error()
	}
	return resp
}

func (h *ReservationHandler) writeSuccess(w http.ResponseWriter, handlerName string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handlerName, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, toAppError(err)); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}

func toAppError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}

	var mutErr *reserrors.MutationError
	switch {
	case errors.As(err, &mutErr):
		return apperrors.Upstream(mutErr.Error(), err).WithDetails(map[string]any{
			"domain": mutErr.Domain,
			"id":     mutErr.ID,
		})
	case errors.Is(err, reserrors.ErrSessionNotFound):
		return apperrors.Unauthorized(err.Error())
	case errors.Is(err, reserrors.ErrNotFound):
		return apperrors.NotFound("Reservation")
	case errors.Is(err, reserrors.ErrNotCancelable), errors.Is(err, reserrors.ErrCancelInFlight):
		return apperrors.Conflict(err.Error())
	case errors.Is(err, reserrors.ErrUnknownDomain), errors.Is(err, reserrors.ErrUnknownStatus):
		return apperrors.InvalidInput(err.Error())
	default:
		return apperrors.Internal("Failed to process reservation request", err)
	}
}
