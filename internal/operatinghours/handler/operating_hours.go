package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medslot/internal/operatinghours/service"
	httputil "medslot/pkg/http"
	"medslot/pkg/logger"
	"medslot/pkg/model"
)

type OperatingHoursHandler struct {
	service service.OperatingHoursService
	log     *logger.Logger
}

func NewOperatingHoursHandler(service service.OperatingHoursService, log *logger.Logger) *OperatingHoursHandler {
	return &OperatingHoursHandler{
		service: service,
		log:     log,
	}
}

func (h *OperatingHoursHandler) Replace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var hours model.OperatingHours
	if err := httputil.DecodeJSON(r, &hours); err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := h.service.Replace(r.Context(), ps.ByName("provider_id"), &hours); err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := httputil.WriteSuccess(w, hours); err != nil {
		h.log.Error("failed to write success response", "handler", "Replace", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OperatingHoursHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hours, err := h.service.Get(r.Context(), ps.ByName("provider_id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, hours); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OperatingHoursHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *OperatingHoursHandler) RegisterRoutes(router *httprouter.Router) {
	router.PUT("/api/v1/providers/:provider_id/operating-hours", h.Replace)
	router.GET("/api/v1/providers/:provider_id/operating-hours", h.Get)
}
