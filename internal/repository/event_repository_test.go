package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecal/lifecal-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCreateEventAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	event := &models.Event{
		UserID: 1,
		Title:  "Team Meeting",
		Start:  time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC),
		End:    time.Date(2024, 3, 18, 10, 30, 0, 0, time.UTC),
		Color:  models.DefaultEventColor,
	}
	err := repo.Create(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, int64(7), event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NotNil(t, event.SharedWith)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchCommitsAllInOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	first := &models.Event{UserID: 1, Title: "Team Meeting", Start: time.Now(), End: time.Now().Add(time.Hour)}
	second := &models.Event{UserID: 1, Title: "Lunch Break", Start: time.Now(), End: time.Now().Add(time.Hour)}

	err := repo.CreateBatch(context.Background(), []*models.Event{first, second})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO events").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	events := []*models.Event{
		{UserID: 1, Title: "First", Start: time.Now(), End: time.Now().Add(time.Hour)},
		{UserID: 1, Title: "Second", Start: time.Now(), End: time.Now().Add(time.Hour)},
	}
	err := repo.CreateBatch(context.Background(), events)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchEmptySliceSkipsTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	err := repo.CreateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "start", "end", "color", "recurring", "recurrence_pattern", "category", "shared_with", "created_at", "updated_at"}).
		AddRow(int64(5), int64(1), "Lunch Break", now, now.Add(time.Hour), models.DefaultEventColor, false, nil, nil, "{}", now, now)
	mock.ExpectQuery(`SELECT id, user_id, title, "start", "end", color, recurring, recurrence_pattern, category, shared_with, created_at, updated_at FROM events WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	event, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Lunch Break", event.Title)
	assert.Equal(t, int64(1), event.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT .+ FROM events WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "start", "end", "color", "recurring", "recurrence_pattern", "category", "shared_with", "created_at", "updated_at"}).
		AddRow(int64(1), int64(1), "Wake Up", now, now.Add(5*time.Minute), models.DefaultEventColor, false, nil, nil, "{}", now, now).
		AddRow(int64(2), int64(1), "Breakfast", now.Add(time.Hour), now.Add(2*time.Hour), models.DefaultEventColor, false, nil, nil, "{}", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM events WHERE user_id = $1 ORDER BY "start" ASC, id ASC`)).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	events, err := repo.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Wake Up", events[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("UPDATE events SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	event := &models.Event{ID: 42, Title: "Gone", Start: time.Now(), End: time.Now().Add(time.Hour), SharedWith: pq.StringArray{}}
	err := repo.Update(context.Background(), event)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEvent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM events WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM events WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
