package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByEvent(ctx context.Context, eventID string) ([]models.Notification, error)
}

type notificationEventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type posterStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// AppendNotificationRequest describes a manual announcement payload.
type AppendNotificationRequest struct {
	Type    models.NotificationType `json:"type" validate:"required"`
	Message string                  `json:"message"`
}

// NotificationService appends and lists per-event announcements.
type NotificationService struct {
	repo      notificationRepository
	events    notificationEventReader
	posters   posterStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(repo notificationRepository, events notificationEventReader, posters posterStore, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, events: events, posters: posters, validator: validate, logger: logger}
}

// Append adds a text announcement to an event.
func (s *NotificationService) Append(ctx context.Context, eventID string, req AppendNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported notification type %q", req.Type))
	}
	if req.Type == models.NotificationTypeText && strings.TrimSpace(req.Message) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required for text notifications")
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	notification := &models.Notification{
		EventID: eventID,
		Type:    req.Type,
		Message: req.Message,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notification")
	}
	return notification, nil
}

// AppendPoster stores an uploaded poster image and records a poster
// notification pointing at it.
func (s *NotificationService) AppendPoster(ctx context.Context, eventID, filename string, poster io.Reader, message string) (*models.Notification, error) {
	if filename == "" || poster == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "poster file is required")
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	storedPath := fmt.Sprintf("posters/%s/%s%s", eventID, uuid.NewString(),
		strings.ToLower(path.Ext(filename)))
	if _, err := s.posters.SaveStream(storedPath, poster); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store poster")
	}

	notification := &models.Notification{
		EventID:   eventID,
		Type:      models.NotificationTypePoster,
		Message:   message,
		PosterURL: storedPath,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notification")
	}
	return notification, nil
}

// ListByEvent returns an event's notifications, newest first.
func (s *NotificationService) ListByEvent(ctx context.Context, eventID string) ([]models.Notification, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	notifications, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}
