package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coe-platform/coe-api/internal/models"
)

const blogColumns = `id, title, content, author_id, tags, image, status, created_at, updated_at`

// BlogRepository handles persistence of blog posts.
type BlogRepository struct {
	db *sqlx.DB
}

// NewBlogRepository constructs the repository.
func NewBlogRepository(db *sqlx.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// List returns blogs filtered by the provided criteria.
func (r *BlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	var conditions []string
	var args []interface{}

	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags @> $%d::jsonb", len(args)+1))
		args = append(args, fmt.Sprintf(`["%s"]`, filter.Tag))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM blogs%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		blogColumns, clause, size, offset)

	var blogs []models.Blog
	if err := r.db.SelectContext(ctx, &blogs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM blogs" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}
	return blogs, total, nil
}

// FindByID returns a blog by ID.
func (r *BlogRepository) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	query := fmt.Sprintf("SELECT %s FROM blogs WHERE id = $1", blogColumns)
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, id); err != nil {
		return nil, err
	}
	return &blog, nil
}

// Create persists a new blog post.
func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now
	if blog.Status == "" {
		blog.Status = models.BlogStatusPending
	}
	const query = `INSERT INTO blogs (id, title, content, author_id, tags, image, status, created_at, updated_at)
        VALUES (:id, :title, :content, :author_id, :tags, :image, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		return fmt.Errorf("create blog: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a blog post.
func (r *BlogRepository) Update(ctx context.Context, blog *models.Blog) error {
	blog.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blogs SET title = :title, content = :content, tags = :tags,
        image = :image, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// Delete removes a blog post and reports how many rows were affected.
func (r *BlogRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete blog: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete blog: %w", err)
	}
	return deleted, nil
}
