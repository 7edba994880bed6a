// Package model defines the core domain types for the event registration
// system: users, events, registrations, their status lifecycles, and the
// domain error taxonomy.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role classifies a user account. The core only reads it; role assignment
// happens in the identity service.
type Role string

const (
	RoleUser      Role = "USER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// User is an opaque identity reference. Credentials, avatars, and profile
// management live outside this service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Event represents a capacity-limited event owned by an organizer.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Capacity    int         `json:"capacity"`
	Status      EventStatus `json:"status"`
	OrganizerID string      `json:"organizer_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasStarted reports whether the event's start date is at or before now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartDate.After(now)
}

// IsFull reports whether the given confirmed count exhausts the capacity.
func (e *Event) IsFull(confirmed int) bool {
	return confirmed >= e.Capacity
}

// Registration ties one user to one event. There is at most one row per
// (user, event) pair; cancel/re-register cycles reuse the same row.
type Registration struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	EventID      string             `json:"event_id"`
	Status       RegistrationStatus `json:"status"`
	TicketCode   string             `json:"ticket_code"`
	RegisteredAt time.Time          `json:"registered_at"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty"`
	CheckedInAt  *time.Time         `json:"checked_in_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewRegistration creates a CONFIRMED registration with a fresh ticket code.
func NewRegistration(userID, eventID string, now time.Time) *Registration {
	return &Registration{
		ID:           uuid.NewString(),
		UserID:       userID,
		EventID:      eventID,
		Status:       RegistrationConfirmed,
		TicketCode:   NewTicketCode(),
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsActive reports whether the registration currently holds a seat.
func (r *Registration) IsActive() bool {
	return r.Status == RegistrationConfirmed
}

// Cancel transitions CONFIRMED → CANCELLED and stamps CancelledAt.
// Cancelling is rejected once the event has started.
func (r *Registration) Cancel(eventStart, now time.Time) error {
	if r.Status == RegistrationCancelled {
		return &InvalidStateTransitionError{Message: "registration is already cancelled"}
	}
	if r.Status != RegistrationConfirmed {
		return NewInvalidTransition(string(r.Status), string(RegistrationCancelled))
	}
	if !eventStart.After(now) {
		return &InvalidStateTransitionError{
			Message: "cannot cancel a registration for an event that has already started",
		}
	}
	r.Status = RegistrationCancelled
	t := now
	r.CancelledAt = &t
	r.UpdatedAt = now
	return nil
}

// Reactivate transitions CANCELLED → CONFIRMED, clearing CancelledAt and
// refreshing RegisteredAt. The ticket code is kept: a code is stable for the
// lifetime of the row, so a reactivated registration admits with the same
// ticket it was originally issued.
func (r *Registration) Reactivate(now time.Time) error {
	if r.Status != RegistrationCancelled {
		return NewInvalidTransition(string(r.Status), string(RegistrationConfirmed))
	}
	r.Status = RegistrationConfirmed
	r.CancelledAt = nil
	r.RegisteredAt = now
	r.UpdatedAt = now
	return nil
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Capacity    int       `json:"capacity"`
}

// Validate checks the structural rules for event creation.
func (req *CreateEventRequest) Validate() error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("event title is required")
	}
	if req.Capacity <= 0 {
		return fmt.Errorf("capacity must be a positive integer")
	}
	if req.Capacity > 100_000 {
		return fmt.Errorf("capacity cannot exceed 100,000")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if !req.EndDate.After(req.StartDate) {
		return fmt.Errorf("end_date must be after start_date")
	}
	return nil
}

// UpdateEventRequest is the payload for updating an event. Nil fields are
// left unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
