package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eventra/registration-service/internal/model"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db Querier
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db Querier) *EventRepository {
	return &EventRepository{db: db}
}

const selectEventColumns = `SELECT id, title, description, location, start_date, end_date,
	capacity, status, organizer_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartDate, &e.EndDate,
		&e.Capacity, &e.Status, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event row.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, location, start_date, end_date,
		 capacity, status, organizer_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Title, e.Description, e.Location, e.StartDate, e.EndDate,
		e.Capacity, e.Status, e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		selectEventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Update rewrites all mutable event columns.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET title = $2, description = $3, location = $4, start_date = $5,
		 end_date = $6, capacity = $7, status = $8, updated_at = $9
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Location, e.StartDate,
		e.EndDate, e.Capacity, e.Status, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes an event row. The service layer only permits this for
// DRAFT events, which by definition have no registrations.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// List returns events ordered by start date, optionally filtered by status.
// An empty status returns everything.
func (r *EventRepository) List(ctx context.Context, status model.EventStatus) ([]model.Event, error) {
	query := selectEventColumns + ` FROM events ORDER BY start_date ASC`
	args := []any{}
	if status != "" {
		query = selectEventColumns + ` FROM events WHERE status = $1 ORDER BY start_date ASC`
		args = append(args, status)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListByOrganizer returns the organizer's events, newest first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		selectEventColumns+` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`,
		organizerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
