package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coe-platform/coe-api/internal/models"
)

func newNotificationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{EventID: "event-1", Type: models.NotificationTypeText, Message: "venue changed"}
	err := repo.Create(context.Background(), notification)
	require.NoError(t, err)
	assert.NotEmpty(t, notification.ID)
	assert.False(t, notification.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryListByEventNewestFirst(t *testing.T) {
	db, mock, cleanup := newNotificationMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "event_id", "type", "message", "poster_url", "extended_days", "extended_months", "reason", "created_at",
	}).
		AddRow("n-2", "event-1", "deadline", "", "", 10, 0, "", time.Now()).
		AddRow("n-1", "event-1", "text", "welcome", "", 0, 0, "", time.Now().Add(-time.Hour))
	mock.ExpectQuery("FROM notifications WHERE event_id = \\$1 ORDER BY created_at DESC").
		WithArgs("event-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByEvent(context.Background(), "event-1")
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, models.NotificationTypeDeadline, notifications[0].Type)
	assert.Equal(t, 10, notifications[0].ExtendedDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}
