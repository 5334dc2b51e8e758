package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coe-platform/coe-api/internal/models"
)

const eventColumns = `id, event_name, tagline, category, tags, date, month, year, location, capacity,
        event_mode, banner_image, thumbnail_image, description, highlights, faqs, sponsors, organizer,
        event_contact, who_are_we, status, total_registrations, registered_users, require_resume,
        allowed_file_types, require_basic_info, required_basic_info, require_web_link, required_web_links,
        require_cover_letter, require_portfolio, custom_questions, instructions, version, created_at, updated_at`

// EventRepository handles persistence of events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events filtered by the provided criteria.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("event_name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "created_at",
		"event_name": "event_name",
		"year":       "year",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM events%s ORDER BY %s %s LIMIT %d OFFSET %d",
		eventColumns, clause, orderBy, order, size, offset)

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM events" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID returns an event by its ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByName returns an event by its exact name.
func (r *EventRepository) FindByName(ctx context.Context, name string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE event_name = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, name); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create persists a new event record.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = models.EventStatusUpcoming
	}
	const query = `INSERT INTO events (id, event_name, tagline, category, tags, date, month, year, location, capacity,
        event_mode, banner_image, thumbnail_image, description, highlights, faqs, sponsors, organizer,
        event_contact, who_are_we, status, total_registrations, registered_users, require_resume,
        allowed_file_types, require_basic_info, required_basic_info, require_web_link, required_web_links,
        require_cover_letter, require_portfolio, custom_questions, instructions, version, created_at, updated_at)
        VALUES (:id, :event_name, :tagline, :category, :tags, :date, :month, :year, :location, :capacity,
        :event_mode, :banner_image, :thumbnail_image, :description, :highlights, :faqs, :sponsors, :organizer,
        :event_contact, :who_are_we, :status, :total_registrations, :registered_users, :require_resume,
        :allowed_file_types, :require_basic_info, :required_basic_info, :require_web_link, :required_web_links,
        :require_cover_letter, :require_portfolio, :custom_questions, :instructions, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update rewrites all mutable event fields; the service merges patches first.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET event_name = :event_name, tagline = :tagline, category = :category,
        tags = :tags, date = :date, month = :month, year = :year, location = :location, capacity = :capacity,
        event_mode = :event_mode, banner_image = :banner_image, thumbnail_image = :thumbnail_image,
        description = :description, highlights = :highlights, faqs = :faqs, sponsors = :sponsors,
        organizer = :organizer, event_contact = :event_contact, who_are_we = :who_are_we, status = :status,
        require_resume = :require_resume, allowed_file_types = :allowed_file_types,
        require_basic_info = :require_basic_info, required_basic_info = :required_basic_info,
        require_web_link = :require_web_link, required_web_links = :required_web_links,
        require_cover_letter = :require_cover_letter, require_portfolio = :require_portfolio,
        custom_questions = :custom_questions, instructions = :instructions, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// UpdateRegistrants applies the registered-users/counter mutation guarded by
// the version the caller observed; returns false when the version moved.
func (r *EventRepository) UpdateRegistrants(ctx context.Context, event *models.Event, expectedVersion int64) (bool, error) {
	const query = `UPDATE events SET registered_users = $2, total_registrations = $3,
        version = version + 1, updated_at = $4 WHERE id = $1 AND version = $5`
	res, err := r.db.ExecContext(ctx, query, event.ID, event.RegisteredUsers, event.TotalRegistrations,
		time.Now().UTC(), expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update event registrants: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update event registrants: %w", err)
	}
	return affected == 1, nil
}

// UpdateDeadline rewrites the denormalized date triple.
func (r *EventRepository) UpdateDeadline(ctx context.Context, id, date, month, year string) error {
	const query = `UPDATE events SET date = $2, month = $3, year = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, date, month, year, time.Now().UTC()); err != nil {
		return fmt.Errorf("update event deadline: %w", err)
	}
	return nil
}

// Delete removes an event and reports how many rows were affected.
func (r *EventRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete event: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete event: %w", err)
	}
	return deleted, nil
}
