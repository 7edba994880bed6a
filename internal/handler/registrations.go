package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/service"
)

// RegistrationHandler exposes register/cancel and registration queries.
type RegistrationHandler struct {
	svc *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Register handles POST /events/{id}/register
// Performs a concurrency-safe registration for the specified event.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	reg, err := h.svc.Register(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// CancelRegistration handles POST /registrations/{id}/cancel
func (h *RegistrationHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	reg, err := h.svc.CancelRegistration(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// GetRegistration handles GET /registrations/{id}
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ListMyRegistrations handles GET /registrations/my?active=true
func (h *RegistrationHandler) ListMyRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	regs, err := h.svc.ListUserRegistrations(r.Context(), caller, activeOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ListEventRegistrations handles GET /events/{id}/registrations
func (h *RegistrationHandler) ListEventRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListEventRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}
