package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	"github.com/coe-platform/coe-api/internal/service"
)

type newsletterRepoMock struct {
	emails map[string]bool
}

func (m *newsletterRepoMock) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emails[email], nil
}

func (m *newsletterRepoMock) Create(ctx context.Context, subscription *models.NewsletterSubscription) error {
	if m.emails == nil {
		m.emails = make(map[string]bool)
	}
	m.emails[subscription.Email] = true
	return nil
}

func (m *newsletterRepoMock) List(ctx context.Context) ([]models.NewsletterSubscription, error) {
	return nil, nil
}

func (m *newsletterRepoMock) Delete(ctx context.Context, email string) (int64, error) {
	if !m.emails[email] {
		return 0, nil
	}
	delete(m.emails, email)
	return 1, nil
}

func newNewsletterHandler(repo *newsletterRepoMock) *NewsletterHandler {
	return NewNewsletterHandler(service.NewNewsletterService(repo, nil, zap.NewNop()))
}

func TestNewsletterHandlerSubscribe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNewsletterHandler(&newsletterRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/newsletter", bytes.NewBufferString(`{"email":"ana@coe.dev"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Subscribe(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestNewsletterHandlerSubscribeDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNewsletterHandler(&newsletterRepoMock{emails: map[string]bool{"ana@coe.dev": true}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/newsletter", bytes.NewBufferString(`{"email":"ana@coe.dev"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Subscribe(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestNewsletterHandlerUnsubscribeMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNewsletterHandler(&newsletterRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/newsletter/ghost@coe.dev", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "email", Value: "ghost@coe.dev"}}

	handler.Unsubscribe(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
