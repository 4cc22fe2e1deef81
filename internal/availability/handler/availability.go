package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"masterbook/internal/availability/service"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
	"masterbook/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

// GetTemplate serves any caller. A provider may omit providerId to read their own template.
func (h *AvailabilityHandler) GetTemplate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	providerID := r.URL.Query().Get("providerId")
	if providerID == "" {
		if actor, ok := middleware.ActorFromContext(r.Context()); ok && actor.IsProvider() {
			providerID = actor.ID
		}
	}
	if providerID == "" {
		if err := httputil.WriteBadRequest(w, "providerId query parameter is required"); err != nil {
			h.log.Error("failed to write bad request response", "handler", "GetTemplate", "operation", "WriteBadRequest", "error", err)
		}
		return
	}

	tmpl, err := h.service.GetTemplate(r.Context(), providerID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetTemplate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tmpl); err != nil {
		h.log.Error("failed to write success response", "handler", "GetTemplate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) SaveTemplate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SaveTemplate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req model.WeeklyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteBadRequest(w, "Invalid request body"); writeErr != nil {
			h.log.Error("failed to write bad request response", "handler", "SaveTemplate", "operation", "WriteBadRequest", "error", writeErr)
		}
		return
	}

	tmpl, err := h.service.SaveTemplate(r.Context(), actor, &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SaveTemplate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, tmpl); err != nil {
		h.log.Error("failed to write success response", "handler", "SaveTemplate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) GetDay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	providerID := query.Get("providerId")
	date := query.Get("date")
	if providerID == "" || date == "" {
		if err := httputil.WriteBadRequest(w, "providerId and date query parameters are required"); err != nil {
			h.log.Error("failed to write bad request response", "handler", "GetDay", "operation", "WriteBadRequest", "error", err)
		}
		return
	}

	day, err := h.service.GetDay(r.Context(), providerID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetDay", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, day); err != nil {
		h.log.Error("failed to write success response", "handler", "GetDay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/availability/template", h.GetTemplate)
	router.POST("/availability/template", h.SaveTemplate)
	router.GET("/availability/day", h.GetDay)
}
