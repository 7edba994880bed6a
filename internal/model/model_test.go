package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationCancel(t *testing.T) {
	now := time.Now().UTC()
	eventStart := now.Add(time.Hour)

	reg := NewRegistration("user-1", "event-1", now)
	assert.Equal(t, RegistrationConfirmed, reg.Status)
	assert.True(t, reg.IsActive())

	require.NoError(t, reg.Cancel(eventStart, now))
	assert.Equal(t, RegistrationCancelled, reg.Status)
	require.NotNil(t, reg.CancelledAt)
	assert.True(t, reg.CancelledAt.Equal(now))
	assert.False(t, reg.IsActive())

	// Second cancel is an invalid transition.
	err := reg.Cancel(eventStart, now)
	var badTransition *InvalidStateTransitionError
	require.ErrorAs(t, err, &badTransition)
	assert.Contains(t, badTransition.Error(), "already cancelled")
}

func TestRegistrationCancelAfterStart(t *testing.T) {
	now := time.Now().UTC()
	reg := NewRegistration("user-1", "event-1", now)

	err := reg.Cancel(now.Add(-time.Minute), now)
	var badTransition *InvalidStateTransitionError
	require.ErrorAs(t, err, &badTransition)
	assert.Contains(t, badTransition.Error(), "already started")
	assert.Equal(t, RegistrationConfirmed, reg.Status, "a rejected cancel leaves the row untouched")
}

func TestRegistrationCancelTerminalStates(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []RegistrationStatus{RegistrationAttended, RegistrationNoShow} {
		reg := NewRegistration("user-1", "event-1", now)
		reg.Status = status
		err := reg.Cancel(now.Add(time.Hour), now)
		var badTransition *InvalidStateTransitionError
		assert.ErrorAs(t, err, &badTransition, "status %s", status)
	}
}

func TestRegistrationReactivate(t *testing.T) {
	registered := time.Now().UTC().Add(-time.Hour)
	reg := NewRegistration("user-1", "event-1", registered)
	originalCode := reg.TicketCode

	cancelledAt := registered.Add(10 * time.Minute)
	require.NoError(t, reg.Cancel(time.Now().Add(time.Hour), cancelledAt))

	reactivatedAt := cancelledAt.Add(10 * time.Minute)
	require.NoError(t, reg.Reactivate(reactivatedAt))
	assert.Equal(t, RegistrationConfirmed, reg.Status)
	assert.Nil(t, reg.CancelledAt)
	assert.True(t, reg.RegisteredAt.Equal(reactivatedAt))
	assert.Equal(t, originalCode, reg.TicketCode, "reactivation keeps the issued ticket code")

	// Only CANCELLED rows can be reactivated.
	err := reg.Reactivate(reactivatedAt)
	var badTransition *InvalidStateTransitionError
	assert.ErrorAs(t, err, &badTransition)
}

func TestEventHelpers(t *testing.T) {
	now := time.Now().UTC()
	event := &Event{StartDate: now.Add(time.Hour), Capacity: 3}

	assert.False(t, event.HasStarted(now))
	assert.True(t, event.HasStarted(now.Add(time.Hour)), "start instant counts as started")
	assert.True(t, event.HasStarted(now.Add(2*time.Hour)))

	assert.False(t, event.IsFull(2))
	assert.True(t, event.IsFull(3))
	assert.True(t, event.IsFull(4))
}

func TestNewTicketCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := NewTicketCode()
		require.True(t, strings.HasPrefix(code, "TKT-"), "code %q", code)
		require.Len(t, code, len("TKT-")+12)
		for _, c := range code[len("TKT-"):] {
			assert.Contains(t, ticketAlphabet, string(c))
		}
		assert.False(t, seen[code], "codes must not repeat within a small sample")
		seen[code] = true
	}
}
