package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

type mockNewsletterRepo struct {
	emails map[string]bool
}

func (m *mockNewsletterRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emails[email], nil
}

func (m *mockNewsletterRepo) Create(ctx context.Context, subscription *models.NewsletterSubscription) error {
	if m.emails == nil {
		m.emails = make(map[string]bool)
	}
	subscription.ID = "sub-created"
	m.emails[subscription.Email] = true
	return nil
}

func (m *mockNewsletterRepo) List(ctx context.Context) ([]models.NewsletterSubscription, error) {
	var out []models.NewsletterSubscription
	for email := range m.emails {
		out = append(out, models.NewsletterSubscription{Email: email})
	}
	return out, nil
}

func (m *mockNewsletterRepo) Delete(ctx context.Context, email string) (int64, error) {
	if !m.emails[email] {
		return 0, nil
	}
	delete(m.emails, email)
	return 1, nil
}

func TestNewsletterServiceSubscribeNormalizesEmail(t *testing.T) {
	repo := &mockNewsletterRepo{}
	svc := NewNewsletterService(repo, validator.New(), zap.NewNop())

	subscription, err := svc.Subscribe(context.Background(), SubscribeRequest{Email: "  Ana@CoE.dev "})
	require.NoError(t, err)
	assert.Equal(t, "ana@coe.dev", subscription.Email)
}

func TestNewsletterServiceSubscribeDuplicate(t *testing.T) {
	repo := &mockNewsletterRepo{emails: map[string]bool{"ana@coe.dev": true}}
	svc := NewNewsletterService(repo, validator.New(), zap.NewNop())

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{Email: "ana@coe.dev"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestNewsletterServiceSubscribeRejectsInvalidEmail(t *testing.T) {
	svc := NewNewsletterService(&mockNewsletterRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Subscribe(context.Background(), SubscribeRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNewsletterServiceUnsubscribeMissing(t *testing.T) {
	svc := NewNewsletterService(&mockNewsletterRepo{}, validator.New(), zap.NewNop())

	err := svc.Unsubscribe(context.Background(), "ghost@coe.dev")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
