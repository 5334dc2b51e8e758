package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coe-platform/coe-api/internal/service"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
	"github.com/coe-platform/coe-api/pkg/response"
)

// NewsletterHandler exposes newsletter subscription endpoints.
type NewsletterHandler struct {
	newsletters *service.NewsletterService
}

// NewNewsletterHandler constructs NewsletterHandler.
func NewNewsletterHandler(newsletters *service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletters: newsletters}
}

// Subscribe godoc
// @Summary Subscribe an email address
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param payload body service.SubscribeRequest true "Subscription payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /newsletter/subscribe [post]
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subscription, err := h.newsletters.Subscribe(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subscription)
}

// List godoc
// @Summary List newsletter subscribers
// @Tags Newsletter
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /newsletter [get]
func (h *NewsletterHandler) List(c *gin.Context) {
	subscriptions, err := h.newsletters.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subscriptions, nil)
}

// Unsubscribe godoc
// @Summary Remove a subscription by email
// @Tags Newsletter
// @Produce json
// @Param email path string true "Email address"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /newsletter/{email} [delete]
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	if err := h.newsletters.Unsubscribe(c.Request.Context(), c.Param("email")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
