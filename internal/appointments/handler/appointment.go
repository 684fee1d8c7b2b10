package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medslot/internal/appointments/service"
	httputil "medslot/pkg/http"
	"medslot/pkg/logger"
	"medslot/pkg/middleware"
	"medslot/pkg/model"
)

type AppointmentHandler struct {
	service service.AppointmentService
	limits  RouteLimits
	log     *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, limits RouteLimits, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		limits:  limits,
		log:     log,
	}
}

// RouteLimits holds the rate limit middleware for write routes. A nil entry
// leaves the route unlimited.
type RouteLimits struct {
	Booking    middleware.Middleware
	Reschedule middleware.Middleware
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	appointment, err := h.service.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appointment, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Search(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	startTime, err := httputil.ExtractTime(r, "start_time")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	endTime, err := httputil.ExtractTime(r, "end_time")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	providerID := r.URL.Query().Get("provider_id")
	appointments, total, err := h.service.Search(r.Context(), providerID, startTime, endTime, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slots, err := h.service.ListSlots(r.Context(), ps.ByName("provider_id"), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "ListSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "ListSlots", "operation", "WriteSuccess", "error", err)
	}
}

// ValidateSlot answers 200 with the result whether or not the slot is valid.
func (h *AppointmentHandler) ValidateSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.SlotValidationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ValidateSlot", err)
		return
	}

	result, err := h.service.ValidateSlot(r.Context(), ps.ByName("provider_id"), &req)
	if err != nil {
		h.writeError(w, "ValidateSlot", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "ValidateSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) ValidateReschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RescheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ValidateReschedule", err)
		return
	}

	result, err := h.service.ValidateReschedule(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "ValidateReschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "ValidateReschedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RescheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	appointment, err := h.service.Reschedule(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Reschedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.TransitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	appointment, err := h.service.Transition(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", middleware.Handle(h.Book, h.limits.Booking))
	router.GET("/api/v1/appointments/search", h.Search)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.POST("/api/v1/appointments/id/:id/reschedule", middleware.Handle(h.Reschedule, h.limits.Reschedule))
	router.POST("/api/v1/appointments/id/:id/reschedule/validate", h.ValidateReschedule)
	router.POST("/api/v1/appointments/id/:id/transitions", h.Transition)

	router.GET("/api/v1/providers/:provider_id/slots", h.ListSlots)
	router.POST("/api/v1/providers/:provider_id/slots/validate", h.ValidateSlot)
}
