// Package notify defines the domain notifications this service emits and
// the sink they are delivered through. Delivery is fire-and-forget: the
// business outcome is already committed by the time a notification is
// published, so a delivery failure is logged and swallowed, never surfaced.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys on the events exchange. Downstream workers bind queues with
// registration.* / event.* patterns.
const (
	RoutingRegistrationConfirmed = "registration.confirmed"
	RoutingRegistrationCancelled = "registration.cancelled"
	RoutingEventPublished        = "event.published"
	RoutingEventCancelled        = "event.cancelled"
)

// Type discriminators carried inside the payloads.
const (
	TypeRegistrationConfirmed = "REGISTRATION_CONFIRMED"
	TypeRegistrationCancelled = "REGISTRATION_CANCELLED"
	TypeEventPublished        = "EVENT_PUBLISHED"
	TypeEventCancelled        = "EVENT_CANCELLED"
)

// Notification is the closed set of payloads this service publishes. The
// routing key doubles as the variant discriminator.
type Notification interface {
	RoutingKey() string
}

// Sink receives domain notifications.
type Sink interface {
	Publish(ctx context.Context, n Notification) error
}

// Meta carries the fields every notification shares.
type Meta struct {
	NotificationID string    `json:"notification_id"`
	Type           string    `json:"type"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewMeta stamps a fresh notification identity.
func NewMeta(notificationType string) Meta {
	return Meta{
		NotificationID: uuid.NewString(),
		Type:           notificationType,
		OccurredAt:     time.Now().UTC(),
	}
}

// RegistrationConfirmed announces a seat claimed on an event, carrying the
// confirmed count as of the commit that admitted it.
type RegistrationConfirmed struct {
	Meta
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	UserName       string    `json:"user_name"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	EventLocation  string    `json:"event_location"`
	EventStart     time.Time `json:"event_start"`
	EventEnd       time.Time `json:"event_end"`
	TicketCode     string    `json:"ticket_code"`
	ConfirmedCount int       `json:"confirmed_count"`
}

func (RegistrationConfirmed) RoutingKey() string { return RoutingRegistrationConfirmed }

// RegistrationCancelled announces a released seat.
type RegistrationCancelled struct {
	Meta
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email"`
	UserName       string    `json:"user_name"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	EventLocation  string    `json:"event_location"`
	EventStart     time.Time `json:"event_start"`
	EventEnd       time.Time `json:"event_end"`
	TicketCode     string    `json:"ticket_code"`
	CancelledAt    time.Time `json:"cancelled_at"`
	ConfirmedCount int       `json:"confirmed_count"`
}

func (RegistrationCancelled) RoutingKey() string { return RoutingRegistrationCancelled }

// EventPublished announces an event going live, with the full snapshot
// downstream consumers need to render announcements.
type EventPublished struct {
	Meta
	EventID        string    `json:"event_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Capacity       int       `json:"capacity"`
	OrganizerID    string    `json:"organizer_id"`
	OrganizerName  string    `json:"organizer_name"`
	OrganizerEmail string    `json:"organizer_email"`
}

func (EventPublished) RoutingKey() string { return RoutingEventPublished }

// EventCancelled announces a cancelled event along with how many confirmed
// registrations it strands.
type EventCancelled struct {
	Meta
	EventID               string    `json:"event_id"`
	Title                 string    `json:"title"`
	OriginalStartDate     time.Time `json:"original_start_date"`
	OrganizerID           string    `json:"organizer_id"`
	OrganizerEmail        string    `json:"organizer_email"`
	AffectedRegistrations int       `json:"affected_registrations"`
}

func (EventCancelled) RoutingKey() string { return RoutingEventCancelled }
