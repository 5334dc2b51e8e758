package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coe-platform/coe-api/internal/models"
)

// NewsletterRepository handles persistence of newsletter subscriptions.
type NewsletterRepository struct {
	db *sqlx.DB
}

// NewNewsletterRepository constructs the repository.
func NewNewsletterRepository(db *sqlx.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// ExistsByEmail reports whether the email is already subscribed.
func (r *NewsletterRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM newsletter_subscriptions WHERE email = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return true, nil
}

// Create persists a new subscription.
func (r *NewsletterRepository) Create(ctx context.Context, subscription *models.NewsletterSubscription) error {
	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	if subscription.SubscribedAt.IsZero() {
		subscription.SubscribedAt = time.Now().UTC()
	}
	const query = `INSERT INTO newsletter_subscriptions (id, email, subscribed_at)
        VALUES (:id, :email, :subscribed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subscription); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

// List returns all subscriptions, newest first.
func (r *NewsletterRepository) List(ctx context.Context) ([]models.NewsletterSubscription, error) {
	const query = `SELECT id, email, subscribed_at FROM newsletter_subscriptions ORDER BY subscribed_at DESC`
	var subscriptions []models.NewsletterSubscription
	if err := r.db.SelectContext(ctx, &subscriptions, query); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// Delete removes a subscription by email and reports the count.
func (r *NewsletterRepository) Delete(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM newsletter_subscriptions WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("delete subscription: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete subscription: %w", err)
	}
	return deleted, nil
}
