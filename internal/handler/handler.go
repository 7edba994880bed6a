// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer. Authentication happens
// upstream; the verified caller identity arrives in the X-User-Email header
// and is passed into the services explicitly.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/eventra/registration-service/internal/model"
)

// IdentityHeader carries the authenticated caller identity set by the
// upstream gateway.
const IdentityHeader = "X-User-Email"

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// callerEmail extracts the upstream-verified identity, or writes a 401 and
// reports false.
func callerEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.Header.Get(IdentityHeader)
	if email == "" {
		writeError(w, http.StatusUnauthorized, "missing caller identity")
		return "", false
	}
	return email, true
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
// Unexpected faults become an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var notAvailable *model.EventNotAvailableError
	var badTransition *model.InvalidStateTransitionError

	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrDuplicateRegistration):
		writeError(w, http.StatusConflict, "you are already registered for this event")
	case errors.Is(err, model.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, model.ErrContention):
		writeError(w, http.StatusServiceUnavailable, "registration is busy, please try again")
	case errors.As(err, &notAvailable):
		writeError(w, http.StatusConflict, notAvailable.Error())
	case errors.As(err, &badTransition):
		writeError(w, http.StatusConflict, badTransition.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// isDomainError reports whether err belongs to the domain error taxonomy,
// as opposed to a validation message or an internal fault.
func isDomainError(err error) bool {
	var notAvailable *model.EventNotAvailableError
	var badTransition *model.InvalidStateTransitionError
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrDuplicateRegistration) ||
		errors.Is(err, model.ErrAccessDenied) ||
		errors.Is(err, model.ErrContention) ||
		errors.As(err, &notAvailable) ||
		errors.As(err, &badTransition)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
