package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"marketplace/internal/catalog/service"
	apperrors "marketplace/pkg/errors"
	httputil "marketplace/pkg/http"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
	"marketplace/pkg/stats"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, log: log}
}

type itemResponse struct {
	*model.CatalogItem
	FillPercentage float64 `json:"fill_percentage"`
}

func toResponse(item *model.CatalogItem) itemResponse {
	return itemResponse{CatalogItem: item, FillPercentage: stats.FillPercentage(item.Participants, item.Capacity)}
}

func (h *CatalogHandler) create(kind model.CatalogKind) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var input model.CatalogInput
		if err := httputil.DecodeBody(r, &input, false); err != nil {
			h.writeError(w, "Create", err)
			return
		}

		item, err := h.service.Create(r.Context(), kind, &input)
		if err != nil {
			h.writeError(w, "Create", err)
			return
		}

		if err := httputil.WriteCreated(w, toResponse(item)); err != nil {
			h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
		}
	}
}

func (h *CatalogHandler) list(kind model.CatalogKind) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		limit, offset, err := httputil.ExtractLimitOffset(r)
		if err != nil {
			h.writeError(w, "List", err)
			return
		}

		query := r.URL.Query()
		items, total, err := h.service.List(r.Context(), kind, query.Get("search"), query.Get("status"), limit, offset)
		if err != nil {
			h.writeError(w, "List", err)
			return
		}

		out := make([]itemResponse, len(items))
		for i, item := range items {
			out[i] = toResponse(item)
		}
		if err := httputil.WritePaginated(w, out, total, limit, int(offset)); err != nil {
			h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
		}
	}
}

func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	if err := httputil.WriteSuccess(w, toResponse(item)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) Fill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	fill, err := h.service.Fill(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Fill", err)
		return
	}
	if err := httputil.WriteSuccess(w, fill); err != nil {
		h.log.Error("failed to write success response", "handler", "Fill", "operation", "WriteSuccess", "error", err)
	}
}

// Stats serves the dashboard figures; kind defaults to event.
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	kind := model.KindEvent
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, ok := service.ParseKind(raw)
		if !ok {
			h.writeError(w, "Stats", apperrors.InvalidInput("Unknown catalog kind: "+raw))
			return
		}
		kind = parsed
	}

	summary, err := h.service.Stats(r.Context(), kind)
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}
	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/catalog/stats", h.Stats)

	router.GET("/api/v1/events", h.list(model.KindEvent))
	router.POST("/api/v1/events", h.create(model.KindEvent))
	router.GET("/api/v1/events/id/:id", h.GetByID)
	router.GET("/api/v1/events/id/:id/fill", h.Fill)

	router.GET("/api/v1/discoveries", h.list(model.KindDiscovery))
	router.POST("/api/v1/discoveries", h.create(model.KindDiscovery))
	router.GET("/api/v1/discoveries/id/:id", h.GetByID)
	router.GET("/api/v1/discoveries/id/:id/fill", h.Fill)
}

func (h *CatalogHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "operation", "WriteError", "error", writeErr)
	}
}
