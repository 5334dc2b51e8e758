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

func newRegistrationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func registrationRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_id", "user_id", "answers", "resume_path", "basic_info", "web_links",
		"portfolio", "cover_letter", "created_at", "updated_at",
	}).AddRow(
		"reg-1", "event-1", "user-1", []byte(`[{"index":0,"answer":"Yes"}]`), "resumes/u1.pdf",
		[]byte(`{"name":"Ana"}`), []byte(`{}`), "", "", time.Now(), time.Now(),
	)
}

func TestRegistrationRepositoryFindByEventAndUser(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("FROM event_registrations WHERE event_id = \\$1 AND user_id = \\$2").
		WithArgs("event-1", "user-1").
		WillReturnRows(registrationRow())

	registration, err := repo.FindByEventAndUser(context.Background(), "event-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "reg-1", registration.ID)
	require.Len(t, registration.Answers, 1)
	assert.Equal(t, "Yes", registration.Answers[0].Answer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO event_registrations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	registration := &models.EventRegistration{EventID: "event-1", UserID: "user-1"}
	err := repo.Create(context.Background(), registration)
	require.NoError(t, err)
	assert.NotEmpty(t, registration.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateAnswersReportsMatched(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE event_registrations SET answers = $3")).
		WithArgs("event-1", "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	matched, err := repo.UpdateAnswers(context.Background(), "event-1", "user-1",
		models.AnswerList{{Index: 0, Answer: "No"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryExistsNoRows(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2")).
		WithArgs("event-1", "user-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByEventAndUser(context.Background(), "event-1", "user-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryDeleteReportsCount(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2")).
		WithArgs("event-1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.DeleteByEventAndUser(context.Background(), "event-1", "ghost")
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
