package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventra/registration-service/internal/model"
)

func TestValidateUnknownTicket(t *testing.T) {
	f := newFixture()

	result, err := f.tickets.Validate(context.Background(), "TKT-DOESNOTEXIST")
	require.NoError(t, err)
	assert.Equal(t, ValidationInvalid, result.Status)
	assert.Equal(t, "ticket not found", result.Reason)
	assert.Equal(t, "TKT-DOESNOTEXIST", result.TicketCode)
}

func TestValidateCancelledRegistration(t *testing.T) {
	f := newFixture()
	event := f.publishedEvent(10, time.Now().Add(time.Hour))
	f.store.addUser("alice@example.com", "Alice")
	ctx := context.Background()

	reg, err := f.regs.Register(ctx, event.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = f.regs.CancelRegistration(ctx, reg.ID, "alice@example.com")
	require.NoError(t, err)

	result, err := f.tickets.Validate(ctx, reg.TicketCode)
	require.NoError(t, err)
	assert.Equal(t, ValidationInvalid, result.Status)
	assert.Contains(t, result.Reason, "cancelled")
}

func TestValidateCancelledEvent(t *testing.T) {
	f := newFixture()
	event := f.publishedEvent(10, time.Now().Add(time.Hour))
	f.store.addUser("alice@example.com", "Alice")
	ctx := context.Background()

	reg, err := f.regs.Register(ctx, event.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = f.events.CancelEvent(ctx, event.ID, "organizer@example.com")
	require.NoError(t, err)

	result, err := f.tickets.Validate(ctx, reg.TicketCode)
	require.NoError(t, err)
	assert.Equal(t, ValidationInvalid, result.Status)
	assert.Contains(t, result.Reason, "event has been cancelled")
}

func TestValidateSuccessThenAlreadyUsed(t *testing.T) {
	f := newFixture()
	event := f.publishedEvent(10, time.Now().Add(time.Hour))
	f.store.addUser("alice@example.com", "Alice")
	ctx := context.Background()

	reg, err := f.regs.Register(ctx, event.ID, "alice@example.com")
	require.NoError(t, err)

	first, err := f.tickets.Validate(ctx, reg.TicketCode)
	require.NoError(t, err)
	assert.Equal(t, ValidationSuccess, first.Status)
	assert.Equal(t, "Alice", first.AttendeeName)
	assert.Equal(t, "alice@example.com", first.AttendeeEmail)
	assert.Equal(t, event.Title, first.EventTitle)
	require.NotNil(t, first.CheckedInAt)

	stamped, err := f.regs.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationAttended, stamped.Status)

	second, err := f.tickets.Validate(ctx, reg.TicketCode)
	require.NoError(t, err)
	assert.Equal(t, ValidationAlreadyUsed, second.Status)
	require.NotNil(t, second.CheckedInAt)
	assert.True(t, second.CheckedInAt.Equal(*first.CheckedInAt),
		"repeated scans must report the original check-in time")
}

func TestValidateConcurrentScansSingleSuccess(t *testing.T) {
	const scans = 8

	f := newFixture()
	event := f.publishedEvent(10, time.Now().Add(time.Hour))
	f.store.addUser("alice@example.com", "Alice")
	ctx := context.Background()

	reg, err := f.regs.Register(ctx, event.ID, "alice@example.com")
	require.NoError(t, err)

	start := make(chan struct{})
	results := make(chan *ValidationResult, scans)
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			result, err := f.tickets.Validate(ctx, reg.TicketCode)
			require.NoError(t, err)
			results <- result
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var succeeded, alreadyUsed int
	for result := range results {
		switch result.Status {
		case ValidationSuccess:
			succeeded++
		case ValidationAlreadyUsed:
			alreadyUsed++
			require.NotNil(t, result.CheckedInAt)
		default:
			t.Fatalf("unexpected status %q (%s)", result.Status, result.Reason)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one scan may claim the ticket")
	assert.Equal(t, scans-1, alreadyUsed)
}
