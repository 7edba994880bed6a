package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/service"
)

// EventHandler exposes the event lifecycle over HTTP.
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req, caller)
	if err != nil {
		if isDomainError(err) {
			writeDomainError(w, err)
		} else {
			// Validation failures carry a caller-actionable message.
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events?status=PUBLISHED
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	status := model.EventStatus(r.URL.Query().Get("status"))

	events, err := h.svc.ListEvents(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListMyEvents handles GET /events/mine
func (h *EventHandler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	events, err := h.svc.ListOrganizerEvents(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PATCH /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req, caller)
	if err != nil {
		if isDomainError(err) {
			writeDomainError(w, err)
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// PublishEvent handles POST /events/{id}/publish
func (h *EventHandler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.PublishEvent)
}

// CancelEvent handles POST /events/{id}/cancel
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CancelEvent)
}

// CompleteEvent handles POST /events/{id}/complete
func (h *EventHandler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CompleteEvent)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteEvent(r.Context(), chi.URLParam(r, "id"), caller); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, eventID, callerEmail string) (*model.Event, error),
) {
	caller, ok := callerEmail(w, r)
	if !ok {
		return
	}

	event, err := op(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}
