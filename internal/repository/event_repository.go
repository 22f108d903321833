package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lifecal/lifecal-api/internal/models"
)

// EventRepository persists calendar events. Event ids are assigned by the
// database sequence, so concurrent creates never race on id allocation.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, user_id, title, "start", "end", color, recurring, recurrence_pattern, category, shared_with, created_at, updated_at`

// Create inserts an event and fills in its assigned id and timestamps.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.SharedWith == nil {
		event.SharedWith = pq.StringArray{}
	}
	const query = `INSERT INTO events (user_id, title, "start", "end", color, recurring, recurrence_pattern, category, shared_with, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := r.db.GetContext(ctx, &event.ID, query,
		event.UserID, event.Title, event.Start, event.End, event.Color,
		event.Recurring, event.RecurrencePattern, event.Category,
		event.SharedWith, event.CreatedAt, event.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// CreateBatch inserts all events inside one transaction. Either every
// draft is committed or none is, and ids are assigned in slice order.
func (r *EventRepository) CreateBatch(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const query = `INSERT INTO events (user_id, title, "start", "end", color, recurring, recurrence_pattern, category, shared_with, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	for _, event := range events {
		event.CreatedAt = now
		event.UpdatedAt = now
		if event.SharedWith == nil {
			event.SharedWith = pq.StringArray{}
		}
		if err := tx.GetContext(ctx, &event.ID, query,
			event.UserID, event.Title, event.Start, event.End, event.Color,
			event.Recurring, event.RecurrencePattern, event.Category,
			event.SharedWith, event.CreatedAt, event.UpdatedAt,
		); err != nil {
			return fmt.Errorf("batch create event %q: %w", event.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch create: %w", err)
	}
	return nil
}

// GetByID fetches one event.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return &event, nil
}

// ListByOwner returns every event belonging to a user, earliest first.
func (r *EventRepository) ListByOwner(ctx context.Context, userID int64) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE user_id = $1 ORDER BY "start" ASC, id ASC`, eventColumns)
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list events for user %d: %w", userID, err)
	}
	return events, nil
}

// Update writes the full merged row. The id and user_id columns are never
// part of the SET list, so ownership cannot be reassigned here.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, "start" = :start, "end" = :end, color = :color,
recurring = :recurring, recurrence_pattern = :recurrence_pattern, category = :category,
shared_with = :shared_with, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event %d: %w", event.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event %d: %w", event.ID, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an event permanently. Missing rows surface as
// sql.ErrNoRows so callers can report client bugs instead of masking them.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
