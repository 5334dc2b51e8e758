package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coe-platform/coe-api/internal/service"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
	"github.com/coe-platform/coe-api/pkg/response"
)

// NotificationHandler exposes per-event announcement endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List notifications for an event
// @Tags Notifications
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notifications.ListByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// Append godoc
// @Summary Append a notification to an event
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.AppendNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/notifications [post]
func (h *NotificationHandler) Append(c *gin.Context) {
	var req service.AppendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	notification, err := h.notifications.Append(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// AppendPoster godoc
// @Summary Attach a poster notification to an event
// @Tags Notifications
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Event ID"
// @Param poster formData file true "Poster image"
// @Param message formData string false "Caption"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/notifications/poster [post]
func (h *NotificationHandler) AppendPoster(c *gin.Context) {
	fileHeader, err := c.FormFile("poster")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "poster file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open poster"))
		return
	}
	defer src.Close()

	notification, err := h.notifications.AppendPoster(c.Request.Context(), c.Param("id"), fileHeader.Filename, src, c.PostForm("message"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}
