package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coe-platform/coe-api/internal/models"
	"github.com/coe-platform/coe-api/internal/service"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
	"github.com/coe-platform/coe-api/pkg/response"
)

// BlogHandler exposes blog authoring and moderation endpoints.
type BlogHandler struct {
	blogs *service.BlogService
}

// NewBlogHandler constructs BlogHandler.
func NewBlogHandler(blogs *service.BlogService) *BlogHandler {
	return &BlogHandler{blogs: blogs}
}

// List godoc
// @Summary List blogs
// @Tags Blogs
// @Produce json
// @Param author query string false "Filter by author"
// @Param status query string false "Filter by status"
// @Param tag query string false "Filter by tag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /blogs [get]
func (h *BlogHandler) List(c *gin.Context) {
	var filter models.BlogFilter
	filter.AuthorID = c.Query("author")
	filter.Status = models.BlogStatus(c.Query("status"))
	filter.Tag = c.Query("tag")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	blogs, pagination, err := h.blogs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blogs, pagination)
}

// Get godoc
// @Summary Get blog detail
// @Tags Blogs
// @Produce json
// @Param id path string true "Blog ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blogs/{id} [get]
func (h *BlogHandler) Get(c *gin.Context) {
	blog, err := h.blogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog, nil)
}

// Create godoc
// @Summary Create a blog post
// @Tags Blogs
// @Accept json
// @Produce json
// @Param payload body service.CreateBlogRequest true "Blog payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /blogs [post]
func (h *BlogHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	blog, err := h.blogs.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blog)
}

// Update godoc
// @Summary Update a blog post
// @Tags Blogs
// @Accept json
// @Produce json
// @Param id path string true "Blog ID"
// @Param payload body service.UpdateBlogRequest true "Blog payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blogs/{id} [put]
func (h *BlogHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	blog, err := h.blogs.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog, nil)
}

// Moderate godoc
// @Summary Set the moderation status of a blog post
// @Tags Blogs
// @Accept json
// @Produce json
// @Param id path string true "Blog ID"
// @Param payload body object true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blogs/{id}/status [patch]
func (h *BlogHandler) Moderate(c *gin.Context) {
	var payload struct {
		Status models.BlogStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	blog, err := h.blogs.Moderate(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog, nil)
}

// Delete godoc
// @Summary Delete a blog post
// @Tags Blogs
// @Produce json
// @Param id path string true "Blog ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blogs/{id} [delete]
func (h *BlogHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.blogs.Delete(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
