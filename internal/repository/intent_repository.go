package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coe-platform/coe-api/internal/models"
)

const intentColumns = `id, event_id, user_id, payload, status, created_at, completed_at`

// IntentRepository handles persistence of registration intents.
type IntentRepository struct {
	db *sqlx.DB
}

// NewIntentRepository constructs the repository.
func NewIntentRepository(db *sqlx.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// Create persists a pending intent.
func (r *IntentRepository) Create(ctx context.Context, intent *models.RegistrationIntent) error {
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	if intent.Status == "" {
		intent.Status = models.IntentStatusPending
	}
	const query = `INSERT INTO registration_intents (id, event_id, user_id, payload, status, created_at)
        VALUES (:id, :event_id, :user_id, :payload, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intent); err != nil {
		return fmt.Errorf("create intent: %w", err)
	}
	return nil
}

// MarkCompleted flips a pending intent to completed.
func (r *IntentRepository) MarkCompleted(ctx context.Context, id string) error {
	const query = `UPDATE registration_intents SET status = $2, completed_at = $3
        WHERE id = $1 AND status = $4`
	_, err := r.db.ExecContext(ctx, query, id, models.IntentStatusCompleted,
		time.Now().UTC(), models.IntentStatusPending)
	if err != nil {
		return fmt.Errorf("complete intent: %w", err)
	}
	return nil
}

// ListPendingOlderThan returns pending intents created before the cutoff,
// oldest first. The sweep replays these.
func (r *IntentRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.RegistrationIntent, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_intents
        WHERE status = $1 AND created_at < $2 ORDER BY created_at`, intentColumns)
	var intents []models.RegistrationIntent
	if err := r.db.SelectContext(ctx, &intents, query, models.IntentStatusPending, cutoff); err != nil {
		return nil, fmt.Errorf("list pending intents: %w", err)
	}
	return intents, nil
}

// DeleteByEvent removes all intents tied to an event, used on event deletion.
func (r *IntentRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM registration_intents WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete intents: %w", err)
	}
	return nil
}
