package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

type newsletterRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, subscription *models.NewsletterSubscription) error
	List(ctx context.Context) ([]models.NewsletterSubscription, error)
	Delete(ctx context.Context, email string) (int64, error)
}

// SubscribeRequest carries the email opting in to the newsletter.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// NewsletterService manages newsletter subscriptions.
type NewsletterService struct {
	repo      newsletterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsletterService constructs NewsletterService.
func NewNewsletterService(repo newsletterRepository, validate *validator.Validate, logger *zap.Logger) *NewsletterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsletterService{repo: repo, validator: validate, logger: logger}
}

// Subscribe adds an email to the newsletter list. Duplicate emails conflict.
func (s *NewsletterService) Subscribe(ctx context.Context, req SubscribeRequest) (*models.NewsletterSubscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subscription payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subscription")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already subscribed")
	}

	subscription := &models.NewsletterSubscription{Email: email}
	if err := s.repo.Create(ctx, subscription); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subscription")
	}
	return subscription, nil
}

// List returns all subscriptions.
func (s *NewsletterService) List(ctx context.Context) ([]models.NewsletterSubscription, error) {
	subscriptions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subscriptions")
	}
	return subscriptions, nil
}

// Unsubscribe removes an email from the list.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	deleted, err := s.repo.Delete(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subscription")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
	}
	return nil
}
