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

const registrationColumns = `id, event_id, user_id, answers, resume_path, basic_info, web_links,
        portfolio, cover_letter, created_at, updated_at`

// RegistrationRepository handles persistence of event registration records.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create persists a new registration record.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.EventRegistration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	const query = `INSERT INTO event_registrations (id, event_id, user_id, answers, resume_path, basic_info,
        web_links, portfolio, cover_letter, created_at, updated_at)
        VALUES (:id, :event_id, :user_id, :answers, :resume_path, :basic_info,
        :web_links, :portfolio, :cover_letter, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.EventRegistration, error) {
	query := fmt.Sprintf("SELECT %s FROM event_registrations WHERE id = $1", registrationColumns)
	var registration models.EventRegistration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// FindByEventAndUser returns the registration for the composite pair.
func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.EventRegistration, error) {
	query := fmt.Sprintf("SELECT %s FROM event_registrations WHERE event_id = $1 AND user_id = $2", registrationColumns)
	var registration models.EventRegistration
	if err := r.db.GetContext(ctx, &registration, query, eventID, userID); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListByEvent returns all registrations for an event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	query := fmt.Sprintf("SELECT %s FROM event_registrations WHERE event_id = $1 ORDER BY created_at", registrationColumns)
	var registrations []models.EventRegistration
	if err := r.db.SelectContext(ctx, &registrations, query, eventID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// UpdateAnswers rewrites the answers of a registration keyed by the pair;
// returns the number of matched rows.
func (r *RegistrationRepository) UpdateAnswers(ctx context.Context, eventID, userID string, answers models.AnswerList) (int64, error) {
	const query = `UPDATE event_registrations SET answers = $3, updated_at = $4
        WHERE event_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, eventID, userID, answers, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update registration answers: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update registration answers: %w", err)
	}
	return matched, nil
}

// ExistsByEventAndUser reports whether the pair already has a record.
func (r *RegistrationRepository) ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error) {
	const query = `SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, eventID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// DeleteByEventAndUser removes the registration for the pair and reports the count.
func (r *RegistrationRepository) DeleteByEventAndUser(ctx context.Context, eventID, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete registration: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete registration: %w", err)
	}
	return deleted, nil
}
