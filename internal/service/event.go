package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/notify"
)

// EventService owns the event lifecycle: creation, mutation while editable,
// and the DRAFT → PUBLISHED → CANCELLED/COMPLETED transitions.
type EventService struct {
	users         UserStore
	events        EventStore
	registrations RegistrationStore
	sink          notify.Sink
}

// NewEventService constructs an EventService.
func NewEventService(users UserStore, events EventStore, registrations RegistrationStore, sink notify.Sink) *EventService {
	return &EventService{users: users, events: events, registrations: registrations, sink: sink}
}

// CreateEvent creates a DRAFT event owned by the caller.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest, organizerEmail string) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	organizer, err := s.users.GetByEmail(ctx, organizerEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Capacity:    req.Capacity,
		Status:      model.EventDraft,
		OrganizerID: organizer.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	log.Printf("created event %s (%q) for organizer %s", event.ID, event.Title, organizer.Email)
	return event, nil
}

// UpdateEvent mutates event fields. Allowed only while the status is
// editable (DRAFT or PUBLISHED).
func (s *EventService) UpdateEvent(ctx context.Context, eventID string, req model.UpdateEventRequest, callerEmail string) (*model.Event, error) {
	event, err := s.eventForOrganizer(ctx, eventID, callerEmail)
	if err != nil {
		return nil, err
	}

	if !event.Status.IsEditable() {
		return nil, &model.InvalidStateTransitionError{
			Message: fmt.Sprintf("cannot update event in %s status", event.Status),
		}
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = *req.EndDate
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}

	check := model.CreateEventRequest{
		Title:     event.Title,
		StartDate: event.StartDate,
		EndDate:   event.EndDate,
		Capacity:  event.Capacity,
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}

	event.UpdatedAt = time.Now().UTC()
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// PublishEvent transitions DRAFT → PUBLISHED. Publishing a past-dated event
// is rejected.
func (s *EventService) PublishEvent(ctx context.Context, eventID, callerEmail string) (*model.Event, error) {
	event, err := s.eventForOrganizer(ctx, eventID, callerEmail)
	if err != nil {
		return nil, err
	}

	if !event.Status.CanTransitionTo(model.EventPublished) {
		return nil, model.NewInvalidTransition(string(event.Status), string(model.EventPublished))
	}
	now := time.Now().UTC()
	if event.HasStarted(now) {
		return nil, &model.InvalidStateTransitionError{
			Message: "cannot publish an event that has already started",
		}
	}

	event.Status = model.EventPublished
	event.UpdatedAt = now
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	log.Printf("published event %s (%q)", event.ID, event.Title)

	organizer, err := s.users.GetByID(ctx, event.OrganizerID)
	if err != nil {
		log.Printf("load organizer %s for publish notification: %v", event.OrganizerID, err)
		return event, nil
	}
	publishQuietly(ctx, s.sink, notify.EventPublished{
		Meta:           notify.NewMeta(notify.TypeEventPublished),
		EventID:        event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Location:       event.Location,
		StartDate:      event.StartDate,
		EndDate:        event.EndDate,
		Capacity:       event.Capacity,
		OrganizerID:    organizer.ID,
		OrganizerName:  organizer.Name,
		OrganizerEmail: organizer.Email,
	})
	return event, nil
}

// CancelEvent transitions the event to CANCELLED and reports how many
// confirmed registrations were stranded.
func (s *EventService) CancelEvent(ctx context.Context, eventID, callerEmail string) (*model.Event, error) {
	event, err := s.eventForOrganizer(ctx, eventID, callerEmail)
	if err != nil {
		return nil, err
	}

	if !event.Status.CanTransitionTo(model.EventCancelled) {
		return nil, model.NewInvalidTransition(string(event.Status), string(model.EventCancelled))
	}

	affected, err := s.registrations.CountByEventAndStatus(ctx, event.ID, model.RegistrationConfirmed)
	if err != nil {
		return nil, err
	}

	event.Status = model.EventCancelled
	event.UpdatedAt = time.Now().UTC()
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	log.Printf("cancelled event %s (%q), %d confirmed registrations affected",
		event.ID, event.Title, affected)

	organizer, err := s.users.GetByID(ctx, event.OrganizerID)
	if err != nil {
		log.Printf("load organizer %s for cancel notification: %v", event.OrganizerID, err)
		return event, nil
	}
	publishQuietly(ctx, s.sink, notify.EventCancelled{
		Meta:                  notify.NewMeta(notify.TypeEventCancelled),
		EventID:               event.ID,
		Title:                 event.Title,
		OriginalStartDate:     event.StartDate,
		OrganizerID:           organizer.ID,
		OrganizerEmail:        organizer.Email,
		AffectedRegistrations: affected,
	})
	return event, nil
}

// CompleteEvent transitions PUBLISHED → COMPLETED.
func (s *EventService) CompleteEvent(ctx context.Context, eventID, callerEmail string) (*model.Event, error) {
	event, err := s.eventForOrganizer(ctx, eventID, callerEmail)
	if err != nil {
		return nil, err
	}

	if !event.Status.CanTransitionTo(model.EventCompleted) {
		return nil, model.NewInvalidTransition(string(event.Status), string(model.EventCompleted))
	}

	event.Status = model.EventCompleted
	event.UpdatedAt = time.Now().UTC()
	if err := s.events.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes an event. Permitted only while DRAFT; a published
// event must be cancelled instead so registrants are notified.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, callerEmail string) error {
	event, err := s.eventForOrganizer(ctx, eventID, callerEmail)
	if err != nil {
		return err
	}

	if event.Status != model.EventDraft {
		return &model.InvalidStateTransitionError{
			Message: fmt.Sprintf("cannot delete event in %s status, only drafts can be deleted", event.Status),
		}
	}
	return s.events.Delete(ctx, eventID)
}

// GetEvent returns a single event by id.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return s.events.GetByID(ctx, eventID)
}

// ListEvents returns events, optionally filtered by status.
func (s *EventService) ListEvents(ctx context.Context, status model.EventStatus) ([]model.Event, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("unknown event status %q", status)
	}
	return s.events.List(ctx, status)
}

// ListOrganizerEvents returns the caller's own events, newest first.
func (s *EventService) ListOrganizerEvents(ctx context.Context, callerEmail string) ([]model.Event, error) {
	organizer, err := s.users.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	return s.events.ListByOrganizer(ctx, organizer.ID)
}

// eventForOrganizer loads an event and enforces that the caller owns it.
func (s *EventService) eventForOrganizer(ctx context.Context, eventID, callerEmail string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	caller, err := s.users.GetByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != caller.ID {
		return nil, model.ErrAccessDenied
	}
	return event, nil
}
