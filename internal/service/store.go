// Package service implements the business core: event and registration
// lifecycles, the capacity guard, ticket check-in, and best-effort domain
// notifications. HTTP handlers sit above it, repositories below.
package service

import (
	"context"
	"log"
	"time"

	"github.com/eventra/registration-service/internal/model"
	"github.com/eventra/registration-service/internal/notify"
	"github.com/eventra/registration-service/internal/repository"
)

// The services consume persistence through the interfaces below. The pgx
// implementations live in internal/repository; tests substitute an
// in-memory store.

// UserStore resolves caller identities.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status model.EventStatus) ([]model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error)
}

// RegistrationStore persists registrations outside the exclusive section.
type RegistrationStore interface {
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	GetByUserAndEvent(ctx context.Context, userID, eventID string) (*model.Registration, error)
	GetByTicketCode(ctx context.Context, ticketCode string) (*model.Registration, error)
	Update(ctx context.Context, reg *model.Registration) error
	CountByEventAndStatus(ctx context.Context, eventID string, status model.RegistrationStatus) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]model.Registration, error)
	CheckIn(ctx context.Context, id string, at time.Time) (bool, error)
}

// EventLocker provides the per-event exclusive section. The pgx
// implementation backs it with a SELECT … FOR UPDATE transaction.
type EventLocker interface {
	WithEventLock(ctx context.Context, eventID string, fn func(tx repository.EventTx) error) error
}

// publishQuietly delivers a notification without letting a delivery failure
// reach the caller. The business outcome is committed by the time this
// runs; at-least-attempt, not exactly-once.
func publishQuietly(ctx context.Context, sink notify.Sink, n notify.Notification) {
	if sink == nil {
		return
	}
	if err := sink.Publish(ctx, n); err != nil {
		log.Printf("notify: publish %s failed: %v", n.RoutingKey(), err)
	}
}
