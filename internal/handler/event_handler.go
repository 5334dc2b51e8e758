package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coe-platform/coe-api/internal/models"
	"github.com/coe-platform/coe-api/internal/service"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
	"github.com/coe-platform/coe-api/pkg/response"
)

// EventHandler exposes event lifecycle and registration endpoints.
type EventHandler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	exports       *service.ExportService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events *service.EventService, registrations *service.RegistrationService, exports *service.ExportService) *EventHandler {
	return &EventHandler{events: events, registrations: registrations, exports: exports}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var filter models.EventFilter
	filter.Category = c.Query("category")
	filter.Status = models.EventStatus(c.Query("status"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	events, pagination, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event detail
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// GetByName godoc
// @Summary Get event detail by exact name
// @Tags Events
// @Produce json
// @Param name path string true "Event name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/name/{name} [get]
func (h *EventHandler) GetByName(c *gin.Context) {
	event, err := h.events.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Cancel godoc
// @Summary Cancel an event
// @Description Deletes the event and notifies its registrants
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.CancelEventRequest false "Cancellation reason"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Cancel(c *gin.Context) {
	var req service.CancelEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	if err := h.events.Cancel(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExtendDeadline godoc
// @Summary Extend the registration deadline
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.ExtendDeadlineRequest true "New deadline"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/extend_deadline [patch]
func (h *EventHandler) ExtendDeadline(c *gin.Context) {
	var req service.ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.ExtendDeadline(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Register godoc
// @Summary Register a user for an event
// @Description Multipart submission with a resume file and a JSON "data" part
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Event ID"
// @Param user_id formData string false "User ID (overrides data payload)"
// @Param data formData string true "Submission JSON"
// @Param resume formData file false "Resume file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	var submission service.RegistrationSubmission
	if data := c.PostForm("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &submission); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
			return
		}
	}
	if userID := c.PostForm("user_id"); userID != "" {
		submission.UserID = userID
	}
	if submission.UserID == "" {
		if claims := claimsFromContext(c); claims != nil {
			submission.UserID = claims.UserID
		}
	}

	fileHeader, err := c.FormFile("resume")
	if err != nil && err != http.ErrMissingFile {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resume upload"))
		return
	}

	if fileHeader == nil {
		registration, regErr := h.registrations.Register(c.Request.Context(), c.Param("id"), submission, nil)
		if regErr != nil {
			response.Error(c, regErr)
			return
		}
		response.Created(c, registration)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open resume"))
		return
	}
	defer src.Close()
	submission.ResumeFilename = fileHeader.Filename

	registration, err := h.registrations.Register(c.Request.Context(), c.Param("id"), submission, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// Participants godoc
// @Summary List registered participant IDs
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/participants [get]
func (h *EventHandler) Participants(c *gin.Context) {
	participants, err := h.events.Participants(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, nil)
}

// ExportParticipants godoc
// @Summary Export the participant list as CSV or PDF
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/participants/export [get]
func (h *EventHandler) ExportParticipants(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.exports.ExportParticipants(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
