// Package repository implements all database queries for the registration
// service. It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra/registration-service/internal/model"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx, so the same repository code runs against the pool or inside a
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store aggregates the repositories and owns the per-event exclusive
// section used by the capacity guard.
type Store struct {
	pool          *pgxpool.Pool
	Users         *UserRepository
	Events        *EventRepository
	Registrations *RegistrationRepository
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:          pool,
		Users:         NewUserRepository(pool),
		Events:        NewEventRepository(pool),
		Registrations: NewRegistrationRepository(pool),
	}
}

// EventTx is the view of the store available inside an event's exclusive
// section. Reads through it observe the state as of lock acquisition, which
// is what makes the capacity decision safe: a count cached from before the
// lock could let two waiters both observe a free seat and both admit
// themselves.
type EventTx interface {
	// Event returns the locked event row.
	Event() *model.Event
	// ConfirmedCount returns the number of CONFIRMED registrations for
	// the locked event.
	ConfirmedCount(ctx context.Context) (int, error)
	// FindRegistration returns the user's registration row for the
	// locked event, or model.ErrNotFound.
	FindRegistration(ctx context.Context, userID string) (*model.Registration, error)
	// CreateRegistration inserts a new registration for the locked event.
	CreateRegistration(ctx context.Context, reg *model.Registration) error
	// UpdateRegistration rewrites an existing registration row.
	UpdateRegistration(ctx context.Context, reg *model.Registration) error
}

// WithEventLock runs fn inside a transaction that holds an exclusive
// row-level lock on the event.
//
// Two transactions that read the same committed booking count before either
// writes back will both see free capacity and overbook. SELECT … FOR UPDATE
// blocks every other locker of the row until this transaction commits or
// rolls back, so registration attempts for one event are processed one at a
// time while attempts on other events proceed untouched. The lock is
// released only once fn's effects are durably committed.
//
// A missing event surfaces as model.ErrNotFound; fn's own error aborts the
// transaction and is returned unchanged.
func (s *Store) WithEventLock(ctx context.Context, eventID string, fn func(tx EventTx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx, selectEventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	etx := &eventTx{
		event: event,
		regs:  NewRegistrationRepository(tx),
	}
	if err = fn(etx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type eventTx struct {
	event *model.Event
	regs  *RegistrationRepository
}

func (t *eventTx) Event() *model.Event { return t.event }

func (t *eventTx) ConfirmedCount(ctx context.Context) (int, error) {
	return t.regs.CountByEventAndStatus(ctx, t.event.ID, model.RegistrationConfirmed)
}

func (t *eventTx) FindRegistration(ctx context.Context, userID string) (*model.Registration, error) {
	return t.regs.GetByUserAndEvent(ctx, userID, t.event.ID)
}

func (t *eventTx) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	return t.regs.Create(ctx, reg)
}

func (t *eventTx) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	return t.regs.Update(ctx, reg)
}
