package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eventra/registration-service/internal/model"
)

// ValidationStatus is the outcome of a ticket scan.
type ValidationStatus string

const (
	ValidationSuccess     ValidationStatus = "success"
	ValidationAlreadyUsed ValidationStatus = "already_used"
	ValidationInvalid     ValidationStatus = "invalid"
)

// ValidationResult is what the gate scanner sees.
type ValidationResult struct {
	TicketCode    string           `json:"ticket_code"`
	Status        ValidationStatus `json:"status"`
	Reason        string           `json:"reason,omitempty"`
	AttendeeName  string           `json:"attendee_name,omitempty"`
	AttendeeEmail string           `json:"attendee_email,omitempty"`
	EventTitle    string           `json:"event_title,omitempty"`
	CheckedInAt   *time.Time       `json:"checked_in_at,omitempty"`
}

// TicketService performs check-in at event entry.
type TicketService struct {
	users         UserStore
	events        EventStore
	registrations RegistrationStore
}

// NewTicketService constructs a TicketService.
func NewTicketService(users UserStore, events EventStore, registrations RegistrationStore) *TicketService {
	return &TicketService{users: users, events: events, registrations: registrations}
}

// Validate checks a scanned ticket code and, on the first valid scan,
// stamps the registration as checked in and ATTENDED.
//
// The operation is idempotent towards repeated scans: a ticket that was
// already used reports already_used with the original check-in time rather
// than an error. Two simultaneous scans resolve deterministically through
// the store's conditional stamp: exactly one observes success, the other
// already_used.
func (s *TicketService) Validate(ctx context.Context, ticketCode string) (*ValidationResult, error) {
	reg, err := s.registrations.GetByTicketCode(ctx, ticketCode)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &ValidationResult{
				TicketCode: ticketCode,
				Status:     ValidationInvalid,
				Reason:     "ticket not found",
			}, nil
		}
		return nil, err
	}

	if reg.Status == model.RegistrationCancelled {
		return &ValidationResult{
			TicketCode: ticketCode,
			Status:     ValidationInvalid,
			Reason:     "registration has been cancelled",
		}, nil
	}

	attendee, err := s.users.GetByID(ctx, reg.UserID)
	if err != nil {
		return nil, err
	}

	if reg.CheckedInAt != nil {
		return &ValidationResult{
			TicketCode:   ticketCode,
			Status:       ValidationAlreadyUsed,
			Reason:       "ticket was already used",
			AttendeeName: attendee.Name,
			CheckedInAt:  reg.CheckedInAt,
		}, nil
	}

	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == model.EventCancelled {
		return &ValidationResult{
			TicketCode: ticketCode,
			Status:     ValidationInvalid,
			Reason:     "event has been cancelled",
		}, nil
	}

	now := time.Now().UTC()
	stamped, err := s.registrations.CheckIn(ctx, reg.ID, now)
	if err != nil {
		return nil, err
	}
	if !stamped {
		// Lost the race against a simultaneous scan; report the winner's
		// timestamp.
		fresh, err := s.registrations.GetByID(ctx, reg.ID)
		if err != nil {
			return nil, err
		}
		return &ValidationResult{
			TicketCode:   ticketCode,
			Status:       ValidationAlreadyUsed,
			Reason:       "ticket was already used",
			AttendeeName: attendee.Name,
			CheckedInAt:  fresh.CheckedInAt,
		}, nil
	}

	log.Printf("checked in ticket %s for %s at event %q", ticketCode, attendee.Email, event.Title)
	return &ValidationResult{
		TicketCode:    ticketCode,
		Status:        ValidationSuccess,
		AttendeeName:  attendee.Name,
		AttendeeEmail: attendee.Email,
		EventTitle:    event.Title,
		CheckedInAt:   &now,
	}, nil
}
