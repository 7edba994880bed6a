package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/notify"
	"github.com/eventra/registration-service/internal/repository"
)

// RegistrationService coordinates register and cancel operations: identity
// lookup, capacity admission inside the event's exclusive section,
// lifecycle transitions, persistence, and best-effort notification.
type RegistrationService struct {
	users         UserStore
	events        EventStore
	registrations RegistrationStore
	guard         *CapacityGuard
	sink          notify.Sink
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	users UserStore,
	events EventStore,
	registrations RegistrationStore,
	guard *CapacityGuard,
	sink notify.Sink,
) *RegistrationService {
	return &RegistrationService{
		users:         users,
		events:        events,
		registrations: registrations,
		guard:         guard,
		sink:          sink,
	}
}

// Register claims a seat on the event for the caller.
//
// All checks that depend on the confirmed count run inside the event's
// exclusive section, against reads made after lock acquisition. A caller
// holding a CANCELLED registration gets that same row reactivated instead
// of a second row, which preserves the one-row-per-(user, event) invariant
// across cancel/re-register cycles.
func (s *RegistrationService) Register(ctx context.Context, eventID, callerEmail string) (*model.Registration, error) {
	user, err := s.users.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}

	var (
		reg       *model.Registration
		event     *model.Event
		confirmed int
	)
	err = s.guard.WithExclusiveEventAccess(ctx, eventID, func(tx repository.EventTx) error {
		event = tx.Event()
		now := time.Now().UTC()

		if !event.Status.AcceptsRegistrations() {
			return model.EventNotAccepting(event.Status)
		}
		if event.HasStarted(now) {
			return model.EventAlreadyStarted()
		}

		count, err := tx.ConfirmedCount(ctx)
		if err != nil {
			return err
		}
		if event.IsFull(count) {
			log.Printf("event %s is full (%d/%d), rejecting registration for %s",
				event.ID, count, event.Capacity, user.Email)
			return model.EventAtCapacity(count, event.Capacity)
		}

		existing, err := tx.FindRegistration(ctx, user.ID)
		switch {
		case err == nil && existing.Status == model.RegistrationCancelled:
			if err := existing.Reactivate(now); err != nil {
				return err
			}
			if err := tx.UpdateRegistration(ctx, existing); err != nil {
				return err
			}
			reg = existing
			log.Printf("reactivated registration %s for user %s on event %s",
				reg.ID, user.Email, event.ID)
		case err == nil:
			return model.ErrDuplicateRegistration
		case errors.Is(err, model.ErrNotFound):
			reg = model.NewRegistration(user.ID, event.ID, now)
			if err := tx.CreateRegistration(ctx, reg); err != nil {
				return err
			}
			log.Printf("created registration %s for user %s on event %s",
				reg.ID, user.Email, event.ID)
		default:
			return err
		}

		confirmed = count + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishQuietly(ctx, s.sink, notify.RegistrationConfirmed{
		Meta:           notify.NewMeta(notify.TypeRegistrationConfirmed),
		RegistrationID: reg.ID,
		UserID:         user.ID,
		UserEmail:      user.Email,
		UserName:       user.Name,
		EventID:        event.ID,
		EventTitle:     event.Title,
		EventLocation:  event.Location,
		EventStart:     event.StartDate,
		EventEnd:       event.EndDate,
		TicketCode:     reg.TicketCode,
		ConfirmedCount: confirmed,
	})
	return reg, nil
}

// CancelRegistration releases the caller's seat. It runs outside the
// exclusive section: cancellation only ever decreases the confirmed count,
// so it can race a concurrent Register at worst into either valid ordering.
func (s *RegistrationService) CancelRegistration(ctx context.Context, registrationID, callerEmail string) (*model.Registration, error) {
	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if reg.UserID != user.ID {
		return nil, model.ErrAccessDenied
	}

	event, err := s.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := reg.Cancel(event.StartDate, now); err != nil {
		return nil, err
	}
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, err
	}
	log.Printf("cancelled registration %s for user %s on event %s", reg.ID, user.Email, event.ID)

	confirmed, err := s.registrations.CountByEventAndStatus(ctx, event.ID, model.RegistrationConfirmed)
	if err != nil {
		// The cancellation is committed; losing the notification is the
		// lesser failure.
		log.Printf("count confirmed registrations for event %s: %v", event.ID, err)
		return reg, nil
	}

	publishQuietly(ctx, s.sink, notify.RegistrationCancelled{
		Meta:           notify.NewMeta(notify.TypeRegistrationCancelled),
		RegistrationID: reg.ID,
		UserID:         user.ID,
		UserEmail:      user.Email,
		UserName:       user.Name,
		EventID:        event.ID,
		EventTitle:     event.Title,
		EventLocation:  event.Location,
		EventStart:     event.StartDate,
		EventEnd:       event.EndDate,
		TicketCode:     reg.TicketCode,
		CancelledAt:    *reg.CancelledAt,
		ConfirmedCount: confirmed,
	})
	return reg, nil
}

// GetRegistration returns a registration by id.
func (s *RegistrationService) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return s.registrations.GetByID(ctx, id)
}

// GetRegistrationByTicketCode returns the registration holding a ticket
// code.
func (s *RegistrationService) GetRegistrationByTicketCode(ctx context.Context, ticketCode string) (*model.Registration, error) {
	return s.registrations.GetByTicketCode(ctx, ticketCode)
}

// ListUserRegistrations returns the caller's registrations, optionally only
// the active ones.
func (s *RegistrationService) ListUserRegistrations(ctx context.Context, callerEmail string, activeOnly bool) ([]model.Registration, error) {
	user, err := s.users.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	return s.registrations.ListByUser(ctx, user.ID, activeOnly)
}

// ListEventRegistrations returns an event's registrations in arrival order.
func (s *RegistrationService) ListEventRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// IsUserRegistered reports whether the user holds an active registration
// for the event.
func (s *RegistrationService) IsUserRegistered(ctx context.Context, eventID, userEmail string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, userEmail)
	if err != nil {
		return false, err
	}
	reg, err := s.registrations.GetByUserAndEvent(ctx, user.ID, eventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return reg.IsActive(), nil
}

// ConfirmedCount returns the number of CONFIRMED registrations for an
// event.
func (s *RegistrationService) ConfirmedCount(ctx context.Context, eventID string) (int, error) {
	return s.registrations.CountByEventAndStatus(ctx, eventID, model.RegistrationConfirmed)
}
