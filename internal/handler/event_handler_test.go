package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	"github.com/coe-platform/coe-api/internal/service"
	"github.com/coe-platform/coe-api/pkg/response"
)

type eventRepoMock struct {
	events     []models.Event
	lastFilter models.EventFilter
}

func (m *eventRepoMock) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	m.lastFilter = filter
	return m.events, len(m.events), nil
}

func (m *eventRepoMock) FindByID(ctx context.Context, id string) (*models.Event, error) {
	for i := range m.events {
		if m.events[i].ID == id {
			return &m.events[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *eventRepoMock) FindByName(ctx context.Context, name string) (*models.Event, error) {
	for i := range m.events {
		if m.events[i].EventName == name {
			return &m.events[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *eventRepoMock) Create(ctx context.Context, event *models.Event) error { return nil }
func (m *eventRepoMock) Update(ctx context.Context, event *models.Event) error { return nil }
func (m *eventRepoMock) UpdateDeadline(ctx context.Context, id, date, month, year string) error {
	return nil
}
func (m *eventRepoMock) Delete(ctx context.Context, id string) (int64, error) { return 1, nil }

func newEventHandler(repo *eventRepoMock) *EventHandler {
	svc := service.NewEventService(repo, nil, nil, nil, 0, nil, zap.NewNop())
	return NewEventHandler(svc, nil, nil)
}

func TestEventHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &eventRepoMock{events: []models.Event{{ID: "event-1", EventName: "Hackathon"}}}
	handler := newEventHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events?category=Hackathon&page=2&limit=5", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hackathon", repo.lastFilter.Category)
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.Equal(t, 5, repo.lastFilter.PageSize)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestEventHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEventHandler(&eventRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events/ghost", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEventHandler(&eventRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"eventName":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerExtendDeadlineInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEventHandler(&eventRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/events/event-1/extend_deadline", bytes.NewBufferString(`{`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "event-1"}}

	handler.ExtendDeadline(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
