package models

import "time"

// BlogStatus is the publication state of a blog post.
type BlogStatus string

const (
	BlogStatusPending     BlogStatus = "pending"
	BlogStatusPublished   BlogStatus = "published"
	BlogStatusUnpublished BlogStatus = "unpublished"
	BlogStatusRejected    BlogStatus = "rejected"
)

// Blog is a user-authored post moderated by admins.
type Blog struct {
	ID        string     `db:"id" json:"_id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	AuthorID  string     `db:"author_id" json:"author_id"`
	Tags      StringList `db:"tags" json:"tags"`
	Image     string     `db:"image" json:"image,omitempty"`
	Status    BlogStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// BlogFilter captures filtering criteria for listing blogs.
type BlogFilter struct {
	AuthorID string
	Status   BlogStatus
	Tag      string
	Page     int
	PageSize int
}
