package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

var userRowColumns = []string{"id", "email", "username", "password_hash", "first_name", "last_name", "phone", "profile_image", "created_at", "updated_at"}

func newUserStoreWithMock(t *testing.T, key []byte) (*PostgresUserStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresUserStore(db, key), mock, db
}

func sampleUser() models.User {
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	return models.User{
		ID:           "3f1c2b1e-0000-4000-8000-000000000001",
		Email:        "jane@example.com",
		Username:     "janedoe",
		PasswordHash: "$argon2id$hash",
		ProfileImage: models.DefaultProfileImage("jane@example.com"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserStoreCreate(t *testing.T) {
	store, mock, db := newUserStoreWithMock(t, nil)
	defer db.Close()

	u := sampleUser()
	mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
		WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, "", "", "", u.ProfileImage, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := store.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreCreateDuplicate(t *testing.T) {
	store, mock, db := newUserStoreWithMock(t, nil)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	_, err := store.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, ErrEmailTaken)

	mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_users_username_lower"})
	_, err = store.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, diary.ErrConflict)
}

func TestUserStoreGetByUsername(t *testing.T) {
	store, mock, db := newUserStoreWithMock(t, nil)
	defer db.Close()

	u := sampleUser()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow(u.ID, u.Email, u.Username, u.PasswordHash, "", "", "", u.ProfileImage, u.CreatedAt, u.UpdatedAt)
	mock.ExpectQuery(`(?s)^SELECT .+ FROM users WHERE LOWER\(username\) = LOWER\(\$1\)$`).
		WithArgs("JaneDoe").
		WillReturnRows(rows)

	got, err := store.GetByUsername(context.Background(), "JaneDoe")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestUserStoreNotFound(t *testing.T) {
	store, mock, db := newUserStoreWithMock(t, nil)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmailQuery)).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, diary.ErrNotFound)
}

func TestUserStoreDBError(t *testing.T) {
	store, mock, db := newUserStoreWithMock(t, nil)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectUserByIDQuery)).
		WithArgs("u-1").
		WillReturnError(errors.New("db down"))

	_, err := store.GetByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestUserStoreUpdate(t *testing.T) {
	store, mock, db := newUserStoreWithMock(t, nil)
	defer db.Close()

	u := sampleUser()
	u.FirstName = "Jane"
	mock.ExpectExec(regexp.QuoteMeta(updateUserQuery)).
		WithArgs(u.ID, u.Email, u.Username, "Jane", "", "", u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := store.Update(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)

	mock.ExpectExec(regexp.QuoteMeta(updateUserQuery)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = store.Update(context.Background(), u)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreEncryptsPhone(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	store, mock, db := newUserStoreWithMock(t, key)
	defer db.Close()

	u := sampleUser()
	u.Phone = "+1 555 0100"

	var sealed string
	mock.ExpectExec(regexp.QuoteMeta(insertUserQuery)).
		WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, "", "", sqlmock.AnyArg(), u.ProfileImage, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := store.Create(context.Background(), u)
	require.NoError(t, err)

	sealed, err = utils.Encrypt(key, u.Phone)
	require.NoError(t, err)
	rows := sqlmock.NewRows(userRowColumns).
		AddRow(u.ID, u.Email, u.Username, u.PasswordHash, "", "", sealed, u.ProfileImage, u.CreatedAt, u.UpdatedAt)
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByIDQuery)).
		WithArgs(u.ID).
		WillReturnRows(rows)

	got, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "+1 555 0100", got.Phone)
}
