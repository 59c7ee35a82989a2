package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"marketplace/internal/bookings/service"
	apperrors "marketplace/pkg/errors"
	httputil "marketplace/pkg/http"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type bookingResponse struct {
	*model.ProviderBooking
	NetRevenue float64 `json:"net_revenue"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func toResponse(b *model.ProviderBooking) bookingResponse {
	return bookingResponse{ProviderBooking: b, NetRevenue: b.NetRevenue()}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var intake model.BookingIntake
	if err := httputil.DecodeBody(r, &intake, false); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), &intake)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, toResponse(booking)); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, toResponse(booking)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// GetAll lists the provider queue, narrowed by ?search= and ?status=.
func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	bookings, total, err := h.service.List(r.Context(), query.Get("search"), query.Get("status"), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toResponse(b))
	}
	if err := httputil.WritePaginated(w, out, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

// Transition dispatches POST /api/v1/bookings/:id/:action to the matching
// lifecycle operation. Reject is answered with 204 since the booking no
// longer exists afterwards.
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	op, ok := model.ParseBookingOp(ps.ByName("action"))
	if !ok {
		h.writeError(w, "Transition", apperrors.NotFoundWithID("Booking action", ps.ByName("action")))
		return
	}

	var (
		booking *model.ProviderBooking
		err     error
	)
	switch op {
	case model.OpAccept:
		booking, err = h.service.Accept(r.Context(), id)
	case model.OpStart:
		booking, err = h.service.Start(r.Context(), id)
	case model.OpComplete:
		booking, err = h.service.Complete(r.Context(), id)
	case model.OpCancel:
		booking, err = h.service.Cancel(r.Context(), id)
	case model.OpReject:
		var req rejectRequest
		if err := httputil.DecodeBody(r, &req, true); err != nil {
			h.writeError(w, "Transition", err)
			return
		}
		if _, err := h.service.Reject(r.Context(), id, req.Reason); err != nil {
			h.writeError(w, "Transition", err)
			return
		}
		if err := httputil.WriteNoContent(w); err != nil {
			h.log.Error("failed to write no content response", "handler", "Transition", "operation", "WriteNoContent", "error", err)
		}
		return
	}
	if err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	if err := httputil.WriteSuccess(w, toResponse(booking)); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/stats", h.Stats)
	router.POST("/api/v1/bookings/:id/:action", h.Transition)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}
