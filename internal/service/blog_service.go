package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

type blogRepository interface {
	List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error)
	FindByID(ctx context.Context, id string) (*models.Blog, error)
	Create(ctx context.Context, blog *models.Blog) error
	Update(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id string) (int64, error)
}

// CreateBlogRequest describes the blog creation payload.
type CreateBlogRequest struct {
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
	Image   string   `json:"image"`
}

// UpdateBlogRequest describes the blog update payload.
type UpdateBlogRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Image   *string   `json:"image"`
}

// BlogService manages user-authored posts and their moderation.
type BlogService struct {
	repo      blogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlogService constructs BlogService.
func NewBlogService(repo blogRepository, validate *validator.Validate, logger *zap.Logger) *BlogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogService{repo: repo, validator: validate, logger: logger}
}

// List returns blogs with pagination metadata.
func (s *BlogService) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, *models.Pagination, error) {
	blogs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blogs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return blogs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single blog post.
func (s *BlogService) Get(ctx context.Context, id string) (*models.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blog")
	}
	return blog, nil
}

// Create submits a new blog post pending moderation.
func (s *BlogService) Create(ctx context.Context, authorID string, req CreateBlogRequest) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}
	blog := &models.Blog{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: authorID,
		Tags:     models.StringList(req.Tags),
		Image:    req.Image,
		Status:   models.BlogStatusPending,
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blog")
	}
	return blog, nil
}

// Update edits a blog post. Only the author may edit; edits reset the post
// to pending.
func (s *BlogService) Update(ctx context.Context, id, requesterID string, req UpdateBlogRequest) (*models.Blog, error) {
	blog, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this blog")
	}

	if req.Title != nil {
		blog.Title = *req.Title
	}
	if req.Content != nil {
		blog.Content = *req.Content
	}
	if req.Tags != nil {
		blog.Tags = models.StringList(*req.Tags)
	}
	if req.Image != nil {
		blog.Image = *req.Image
	}
	blog.Status = models.BlogStatusPending

	if err := s.repo.Update(ctx, blog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blog")
	}
	return blog, nil
}

// Moderate sets the publication status of a blog post.
func (s *BlogService) Moderate(ctx context.Context, id string, status models.BlogStatus) (*models.Blog, error) {
	switch status {
	case models.BlogStatusPublished, models.BlogStatusUnpublished, models.BlogStatusRejected:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be published, unpublished, or rejected")
	}
	blog, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	blog.Status = status
	if err := s.repo.Update(ctx, blog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blog status")
	}
	return blog, nil
}

// Delete removes a blog post. Authors may delete their own posts; admins any.
func (s *BlogService) Delete(ctx context.Context, id, requesterID string, requesterRole models.UserRole) error {
	blog, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if requesterRole != models.RoleAdmin && blog.AuthorID != requesterID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this blog")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete blog")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "blog not found")
	}
	return nil
}
