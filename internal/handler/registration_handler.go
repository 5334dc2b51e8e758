package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coe-platform/coe-api/internal/models"
	"github.com/coe-platform/coe-api/internal/service"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
	"github.com/coe-platform/coe-api/pkg/response"
)

// RegistrationHandler exposes the registration record CRUD endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Create godoc
// @Summary Create a registration record
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /event_registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, err := h.registrations.CreateRecord(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// ListByEvent godoc
// @Summary List registration records for an event
// @Tags Registrations
// @Produce json
// @Param event_id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event_registrations/event/{event_id} [get]
func (h *RegistrationHandler) ListByEvent(c *gin.Context) {
	registrations, err := h.registrations.ListByEvent(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// Get godoc
// @Summary Get a registration record
// @Tags Registrations
// @Produce json
// @Param event_id path string true "Event ID"
// @Param user_id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event_registrations/{event_id}/{user_id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	registration, err := h.registrations.GetRecord(c.Request.Context(), c.Param("event_id"), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// UpdateAnswers godoc
// @Summary Replace the answers on a registration record
// @Tags Registrations
// @Accept json
// @Produce json
// @Param event_id path string true "Event ID"
// @Param user_id path string true "User ID"
// @Param payload body object true "Answers payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event_registrations/{event_id}/{user_id} [patch]
func (h *RegistrationHandler) UpdateAnswers(c *gin.Context) {
	var payload struct {
		Answers []models.Answer `json:"answers"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, err := h.registrations.UpdateAnswers(c.Request.Context(), c.Param("event_id"), c.Param("user_id"), payload.Answers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Delete godoc
// @Summary Delete a registration record
// @Tags Registrations
// @Produce json
// @Param event_id path string true "Event ID"
// @Param user_id path string true "User ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /event_registrations/{event_id}/{user_id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
	if err := h.registrations.DeleteRecord(c.Request.Context(), c.Param("event_id"), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
