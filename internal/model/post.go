package model

import (
	"errors"
	"time"
)

const (
	// RecentFeedLimit caps the public feed at the 20 most recent posts.
	RecentFeedLimit = 20

	// CoverFallback is stored when the cover upload was skipped or failed
	// at creation time. A single space, matching the wire contract.
	CoverFallback = " "
)

// Post represents a blog post with its metadata.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Title     string    `db:"title" json:"title"`
	Summary   string    `db:"summary" json:"summary"`
	Content   string    `db:"content" json:"content"`
	Category  string    `db:"category" json:"category"`
	Cover     string    `db:"cover" json:"cover"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Joined author fields (not in posts table)
	Author *UserSummary `json:"author,omitempty"`
}

// CreatePostRequest is the validated input for creating a post.
// Cover is the uploaded media URL, empty when the upload failed.
type CreatePostRequest struct {
	Title    string
	Summary  string
	Content  string
	Category string
	Cover    string
}

// UpdatePostRequest is the validated input for updating a post.
// Cover is nil when no new file was uploaded.
type UpdatePostRequest struct {
	ID      int64
	Title   string
	Summary string
	Content string
	Cover   *string
}

// Post errors
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNotPostAuthor = errors.New("not the author of this post")
)
