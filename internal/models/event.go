package models

import (
	"time"

	"github.com/lib/pq"
)

// DefaultEventColor is applied when a client omits a display color.
const DefaultEventColor = "#3788d8"

// Event represents a calendar event stored in the events table. The id is
// assigned by the database at creation and never changes; the same goes
// for the owning user.
type Event struct {
	ID                int64          `db:"id" json:"id"`
	UserID            int64          `db:"user_id" json:"user_id"`
	Title             string         `db:"title" json:"title"`
	Start             time.Time      `db:"start" json:"start"`
	End               time.Time      `db:"end" json:"end"`
	Color             string         `db:"color" json:"color"`
	Recurring         bool           `db:"recurring" json:"recurring"`
	RecurrencePattern *string        `db:"recurrence_pattern" json:"recurrence_pattern,omitempty"`
	Category          *string        `db:"category" json:"category,omitempty"`
	SharedWith        pq.StringArray `db:"shared_with" json:"shared_with"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// EventPatch carries a partial update. Nil fields are left untouched.
// The id and owner are deliberately absent: neither is updatable.
type EventPatch struct {
	Title             *string    `json:"title"`
	Start             *time.Time `json:"start"`
	End               *time.Time `json:"end"`
	Color             *string    `json:"color"`
	Recurring         *bool      `json:"recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern"`
	Category          *string    `json:"category"`
	SharedWith        []string   `json:"shared_with"`
}
