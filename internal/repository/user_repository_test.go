package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecal/lifecal-api/internal/models"
)

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "birthdate", "lifespan_option", "created_at", "updated_at"}).
		AddRow(int64(1), "ada", "hash", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, birthdate, lifespan_option, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("ada").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.Nil(t, user.Birthdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsernameMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	user := &models.User{Username: "ada", PasswordHash: "hash"}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{
		ID:        "token-1",
		UserID:    1,
		Token:     "value",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET birthdate").
		WillReturnResult(sqlmock.NewResult(0, 1))

	birthdate := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	option := models.LifespanOptimistic
	user := &models.User{ID: 1, Birthdate: &birthdate, LifespanOption: &option}
	require.NoError(t, repo.UpdateProfile(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}
