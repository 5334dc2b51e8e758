package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coe-platform/coe-api/internal/models"
)

const userColumns = `id, username, email, password_hash, age, phone, profile_pic, description,
        skills, interests, role, events_registered, created_at, updated_at`

// UserRepository handles persistence of users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns a user by their unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsernameOrEmail reports whether a user already claimed either identity.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE username = $1 OR email = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, username, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user identity: %w", err)
	}
	return true, nil
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	const query = `INSERT INTO users (id, username, email, password_hash, age, phone, profile_pic, description,
        skills, interests, role, events_registered, created_at, updated_at)
        VALUES (:id, :username, :email, :password_hash, :age, :phone, :profile_pic, :description,
        :skills, :interests, :role, :events_registered, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update rewrites all mutable profile fields; the service merges patches first.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET username = :username, email = :email, password_hash = :password_hash,
        age = :age, phone = :phone, profile_pic = :profile_pic, description = :description,
        skills = :skills, interests = :interests, role = :role, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// AppendHistory appends one registration history entry in a single statement
// so the per-document atomicity of the store is preserved.
func (r *UserRepository) AppendHistory(ctx context.Context, userID string, entry models.EventHistoryEntry) error {
	payload, err := json.Marshal([]models.EventHistoryEntry{entry})
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	const query = `UPDATE users SET events_registered = COALESCE(events_registered, '[]'::jsonb) || $2::jsonb,
        updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append user history: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append user history: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasHistoryEntry reports whether the user's history already references the event.
func (r *UserRepository) HasHistoryEntry(ctx context.Context, userID, eventID string) (bool, error) {
	const query = `SELECT 1 FROM users
        WHERE id = $1 AND events_registered @> $2::jsonb LIMIT 1`
	probe, err := json.Marshal([]map[string]string{{"eventId": eventID}})
	if err != nil {
		return false, fmt.Errorf("marshal history probe: %w", err)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, probe); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user history: %w", err)
	}
	return true, nil
}

// Delete removes a user and reports how many rows were affected.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return deleted, nil
}
