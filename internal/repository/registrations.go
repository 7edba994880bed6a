package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eventra/registration-service/internal/model"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// Constraint names from schema.sql.
const (
	constraintUserEvent  = "registrations_user_event_key"
	constraintTicketCode = "registrations_ticket_code_key"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db Querier
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db Querier) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const selectRegistrationColumns = `SELECT id, user_id, event_id, status, ticket_code,
	registered_at, cancelled_at, checked_in_at, created_at, updated_at`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.TicketCode,
		&reg.RegisteredAt, &reg.CancelledAt, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// Create inserts a new registration. A ticket-code collision regenerates the
// code and retries; the (user, event) uniqueness constraint surfaces as
// model.ErrDuplicateRegistration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	const maxAttempts = 3
	for attempt := 1; ; attempt++ {
		_, err := r.db.Exec(ctx,
			`INSERT INTO registrations (id, user_id, event_id, status, ticket_code,
			 registered_at, cancelled_at, checked_in_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			reg.ID, reg.UserID, reg.EventID, reg.Status, reg.TicketCode,
			reg.RegisteredAt, reg.CancelledAt, reg.CheckedInAt, reg.CreatedAt, reg.UpdatedAt,
		)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case constraintUserEvent:
				return model.ErrDuplicateRegistration
			case constraintTicketCode:
				if attempt < maxAttempts {
					reg.TicketCode = model.NewTicketCode()
					continue
				}
			}
		}
		return fmt.Errorf("insert registration: %w", err)
	}
}

// Update rewrites the mutable columns of a registration row.
func (r *RegistrationRepository) Update(ctx context.Context, reg *model.Registration) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations SET status = $2, registered_at = $3, cancelled_at = $4,
		 checked_in_at = $5, updated_at = $6
		 WHERE id = $1`,
		reg.ID, reg.Status, reg.RegisteredAt, reg.CancelledAt, reg.CheckedInAt, reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// GetByID returns a registration or model.ErrNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		selectRegistrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// GetByUserAndEvent returns the single registration row for a (user, event)
// pair or model.ErrNotFound.
func (r *RegistrationRepository) GetByUserAndEvent(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		selectRegistrationColumns+` FROM registrations WHERE user_id = $1 AND event_id = $2`,
		userID, eventID))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get registration by user and event: %w", err)
	}
	return reg, nil
}

// GetByTicketCode returns the registration holding the code or
// model.ErrNotFound.
func (r *RegistrationRepository) GetByTicketCode(ctx context.Context, ticketCode string) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		selectRegistrationColumns+` FROM registrations WHERE ticket_code = $1`, ticketCode))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get registration by ticket code: %w", err)
	}
	return reg, nil
}

// CountByEventAndStatus counts an event's registrations in a given status.
func (r *RegistrationRepository) CountByEventAndStatus(ctx context.Context, eventID string, status model.RegistrationStatus) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`,
		eventID, status,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// ListByEvent returns all registrations for an event in arrival order.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		selectRegistrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY registered_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	return collectRegistrations(rows)
}

// ListByUser returns a user's registrations, newest first. With activeOnly
// it returns only CONFIRMED rows.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]model.Registration, error) {
	query := selectRegistrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY registered_at DESC`
	args := []any{userID}
	if activeOnly {
		query = selectRegistrationColumns + ` FROM registrations
			WHERE user_id = $1 AND status = $2 ORDER BY registered_at DESC`
		args = append(args, model.RegistrationConfirmed)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	defer rows.Close()

	return collectRegistrations(rows)
}

// CheckIn stamps checked_in_at and marks the registration ATTENDED, but only
// if it has not been stamped before. The conditional update makes two
// concurrent scans of the same ticket resolve deterministically: exactly one
// caller gets true, the other false.
func (r *RegistrationRepository) CheckIn(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE registrations SET checked_in_at = $2, status = $3, updated_at = $2
		 WHERE id = $1 AND checked_in_at IS NULL`,
		id, at, model.RegistrationAttended,
	)
	if err != nil {
		return false, fmt.Errorf("check in registration: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func collectRegistrations(rows pgx.Rows) ([]model.Registration, error) {
	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}
