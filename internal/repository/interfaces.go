package repository

import (
	"context"
	"time"

	"quillblog/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateProfile persists full name, email, password hash and avatar.
	UpdateProfile(ctx context.Context, user *model.User) error
}

type PostRepository interface {
	// Create inserts the post and increments the author's post_count in one
	// transaction.
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	// GetRecent returns up to limit posts ordered by descending creation time,
	// with the author expanded to full name and avatar.
	GetRecent(ctx context.Context, limit int) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	// Delete removes the post and decrements the author's post_count in one
	// transaction. Returns ErrPostNotFound or ErrNotPostAuthor accordingly.
	Delete(ctx context.Context, postID, userID int64) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
