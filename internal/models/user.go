package models

import "time"

// LifespanOption selects the assumed lifespan for the life timeline.
type LifespanOption string

const (
	LifespanAverage    LifespanOption = "average"
	LifespanOptimistic LifespanOption = "optimistic"
)

// User represents an application user stored in the users table.
type User struct {
	ID             int64           `db:"id" json:"id"`
	Username       string          `db:"username" json:"username"`
	PasswordHash   string          `db:"password_hash" json:"-"`
	Birthdate      *time.Time      `db:"birthdate" json:"birthdate,omitempty"`
	LifespanOption *LifespanOption `db:"lifespan_option" json:"lifespan_option,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
