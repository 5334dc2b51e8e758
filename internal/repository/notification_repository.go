package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coe-platform/coe-api/internal/models"
)

const notificationColumns = `id, event_id, type, message, poster_url, extended_days, extended_months, reason, created_at`

// NotificationRepository handles persistence of event notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a notification. Notifications are immutable once written.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, event_id, type, message, poster_url,
        extended_days, extended_months, reason, created_at)
        VALUES (:id, :event_id, :type, :message, :poster_url,
        :extended_days, :extended_months, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByEvent returns notifications for an event, newest first.
func (r *NotificationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM notifications WHERE event_id = $1 ORDER BY created_at DESC", notificationColumns)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, eventID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
