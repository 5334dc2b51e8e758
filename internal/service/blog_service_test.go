package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coe-platform/coe-api/internal/models"
	appErrors "github.com/coe-platform/coe-api/pkg/errors"
)

type mockBlogRepo struct {
	blogs map[string]*models.Blog
}

func (m *mockBlogRepo) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	var out []models.Blog
	for _, blog := range m.blogs {
		out = append(out, *blog)
	}
	return out, len(out), nil
}

func (m *mockBlogRepo) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	if blog, ok := m.blogs[id]; ok {
		copied := *blog
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBlogRepo) Create(ctx context.Context, blog *models.Blog) error {
	if m.blogs == nil {
		m.blogs = make(map[string]*models.Blog)
	}
	blog.ID = "blog-created"
	m.blogs[blog.ID] = blog
	return nil
}

func (m *mockBlogRepo) Update(ctx context.Context, blog *models.Blog) error {
	m.blogs[blog.ID] = blog
	return nil
}

func (m *mockBlogRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.blogs[id]; !ok {
		return 0, nil
	}
	delete(m.blogs, id)
	return 1, nil
}

func blogFixture() (*BlogService, *mockBlogRepo) {
	repo := &mockBlogRepo{blogs: map[string]*models.Blog{
		"blog-1": {ID: "blog-1", Title: "Go tips", Content: "body", AuthorID: "user-1", Status: models.BlogStatusPublished},
	}}
	return NewBlogService(repo, validator.New(), zap.NewNop()), repo
}

func TestBlogServiceCreateStartsPending(t *testing.T) {
	svc, _ := blogFixture()

	blog, err := svc.Create(context.Background(), "user-2", CreateBlogRequest{Title: "New post", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusPending, blog.Status)
	assert.Equal(t, "user-2", blog.AuthorID)
}

func TestBlogServiceCreateRequiresTitle(t *testing.T) {
	svc, _ := blogFixture()

	_, err := svc.Create(context.Background(), "user-2", CreateBlogRequest{Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBlogServiceUpdateOnlyAuthor(t *testing.T) {
	svc, _ := blogFixture()

	title := "Edited"
	_, err := svc.Update(context.Background(), "blog-1", "user-2", UpdateBlogRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBlogServiceUpdateResetsToPending(t *testing.T) {
	svc, repo := blogFixture()

	title := "Edited"
	blog, err := svc.Update(context.Background(), "blog-1", "user-1", UpdateBlogRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edited", blog.Title)
	assert.Equal(t, models.BlogStatusPending, blog.Status)
	assert.Equal(t, models.BlogStatusPending, repo.blogs["blog-1"].Status)
}

func TestBlogServiceModerate(t *testing.T) {
	svc, _ := blogFixture()

	blog, err := svc.Moderate(context.Background(), "blog-1", models.BlogStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusRejected, blog.Status)
}

func TestBlogServiceModerateRejectsUnknownStatus(t *testing.T) {
	svc, _ := blogFixture()

	_, err := svc.Moderate(context.Background(), "blog-1", models.BlogStatus("archived"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBlogServiceDeleteByAdmin(t *testing.T) {
	svc, repo := blogFixture()

	err := svc.Delete(context.Background(), "blog-1", "someone-else", models.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, repo.blogs)
}

func TestBlogServiceDeleteByStrangerForbidden(t *testing.T) {
	svc, _ := blogFixture()

	err := svc.Delete(context.Background(), "blog-1", "user-2", models.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
