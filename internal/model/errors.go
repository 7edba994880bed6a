package model

import (
	"errors"
	"fmt"
)

// Every business-rule rejection is one of the errors below so that callers
// can handle each kind explicitly. Anything else that escapes the service
// layer is an internal fault and is reported generically.

// ErrNotFound is returned when a user, event, or registration is absent.
var ErrNotFound = errors.New("not found")

// ErrDuplicateRegistration is returned when the user already holds an active
// registration for the event.
var ErrDuplicateRegistration = errors.New("already registered for this event")

// ErrAccessDenied is returned when the caller is neither the resource owner
// nor otherwise privileged.
var ErrAccessDenied = errors.New("access denied")

// ErrContention is returned when a registration attempt timed out waiting
// for exclusive access to the event. The attempt was abandoned, not
// partially applied.
var ErrContention = errors.New("timed out waiting for exclusive event access")

// EventNotAvailableError rejects a registration attempt. The reason string
// distinguishes the not-published, already-started, and at-capacity cases.
type EventNotAvailableError struct {
	Reason string
}

func (e *EventNotAvailableError) Error() string {
	return "event not available: " + e.Reason
}

// EventNotAccepting rejects registration against an event that is not
// PUBLISHED.
func EventNotAccepting(status EventStatus) *EventNotAvailableError {
	return &EventNotAvailableError{
		Reason: fmt.Sprintf("event is not accepting registrations (status: %s)", status),
	}
}

// EventAlreadyStarted rejects registration against a past-dated event.
func EventAlreadyStarted() *EventNotAvailableError {
	return &EventNotAvailableError{Reason: "event has already started"}
}

// EventAtCapacity rejects registration against a full event.
func EventAtCapacity(confirmed, capacity int) *EventNotAvailableError {
	return &EventNotAvailableError{
		Reason: fmt.Sprintf("event is at full capacity (%d/%d)", confirmed, capacity),
	}
}

// InvalidStateTransitionError rejects an illegal lifecycle move, such as
// cancelling a cancelled registration or publishing a started event.
type InvalidStateTransitionError struct {
	From    string
	To      string
	Message string
}

func (e *InvalidStateTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// NewInvalidTransition builds the table-violation variant.
func NewInvalidTransition(from, to string) *InvalidStateTransitionError {
	return &InvalidStateTransitionError{From: from, To: to}
}
