package model

// EventStatus is the lifecycle state of an event.
//
//	DRAFT ──→ PUBLISHED ──→ COMPLETED
//	  │            │
//	  └──────┬─────┘
//	         ▼
//	     CANCELLED
//
// CANCELLED and COMPLETED are terminal.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished, EventCancelled},
	EventPublished: {EventCancelled, EventCompleted},
	EventCancelled: {},
	EventCompleted: {},
}

// CanTransitionTo reports whether moving from s to target is allowed by the
// lifecycle table.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s EventStatus) IsTerminal() bool {
	return len(eventTransitions[s]) == 0 && s.IsValid()
}

// IsValid reports whether s is a known event status.
func (s EventStatus) IsValid() bool {
	_, ok := eventTransitions[s]
	return ok
}

// AcceptsRegistrations reports whether events in this state admit new
// registrations. Only PUBLISHED events do.
func (s EventStatus) AcceptsRegistrations() bool {
	return s == EventPublished
}

// IsEditable reports whether event fields may still be mutated.
func (s EventStatus) IsEditable() bool {
	return s == EventDraft || s == EventPublished
}

// IsPubliclyVisible reports whether events in this state show up in public
// listings.
func (s EventStatus) IsPubliclyVisible() bool {
	return s == EventPublished
}

// RegistrationStatus is the lifecycle state of a registration.
// CONFIRMED and CANCELLED alternate through cancel/re-register cycles;
// ATTENDED is stamped by ticket check-in, NO_SHOW by post-event
// reconciliation. Both are terminal.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
	RegistrationAttended  RegistrationStatus = "ATTENDED"
	RegistrationNoShow    RegistrationStatus = "NO_SHOW"
)
