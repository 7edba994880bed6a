package handler

import (
	"net/http"
	"strings"

	"github.com/eventra/registration-service/internal/service"
)

// TicketHandler exposes ticket validation for gate scanners.
type TicketHandler struct {
	svc *service.TicketService
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type validateTicketRequest struct {
	TicketCode string `json:"ticket_code"`
}

// Validate handles POST /tickets/validate
// Scanning is idempotent: a repeated scan is answered with already_used,
// not an error, so the endpoint always returns 200 for a well-formed
// request.
func (h *TicketHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.TicketCode = strings.TrimSpace(req.TicketCode)
	if req.TicketCode == "" {
		writeError(w, http.StatusBadRequest, "ticket_code is required")
		return
	}

	result, err := h.svc.Validate(r.Context(), req.TicketCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
