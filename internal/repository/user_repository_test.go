package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coe-platform/coe-api/internal/models"
)

func newUserMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "age", "phone", "profile_pic", "description",
		"skills", "interests", "role", "events_registered", "created_at", "updated_at",
	}).AddRow(
		"user-1", "ana", "ana@coe.dev", "hash", 21, "123", "", "",
		[]byte(`["go"]`), []byte(`[]`), "STUDENT",
		[]byte(`[{"eventId":"event-1","eventName":"Hackathon","status":"registered"}]`), time.Now(), time.Now(),
	)
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("ana").
		WillReturnRows(userRow())

	user, err := repo.FindByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	require.Len(t, user.EventsRegistered, 1)
	assert.Equal(t, "event-1", user.EventsRegistered[0].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDefaultsRole(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "ana", Email: "ana@coe.dev", PasswordHash: "hash"}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryAppendHistory(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET events_registered = COALESCE(events_registered, '[]'::jsonb) || $2::jsonb")).
		WithArgs("user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := models.EventHistoryEntry{EventID: "event-1", EventName: "Hackathon", Status: "registered"}
	err := repo.AppendHistory(context.Background(), "user-1", entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryAppendHistoryMissingUser(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET events_registered = COALESCE(events_registered, '[]'::jsonb) || $2::jsonb")).
		WithArgs("missing", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AppendHistory(context.Background(), "missing", models.EventHistoryEntry{EventID: "event-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryHasHistoryEntry(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("events_registered @> $2::jsonb")).
		WithArgs("user-1", []byte(`[{"eventId":"event-1"}]`)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	has, err := repo.HasHistoryEntry(context.Background(), "user-1", "event-1")
	require.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByUsernameOrEmailNoRows(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE username = $1 OR email = $2")).
		WithArgs("ana", "ana@coe.dev").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByUsernameOrEmail(context.Background(), "ana", "ana@coe.dev")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
