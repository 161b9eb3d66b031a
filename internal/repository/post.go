package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"quillblog/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// postWithAuthor is the flat scan target for post queries joined with users.
type postWithAuthor struct {
	model.Post
	AuthorID     int64  `db:"author_id"`
	AuthorName   string `db:"author_name"`
	AuthorAvatar string `db:"author_avatar"`
}

func (row *postWithAuthor) toPost() model.Post {
	post := row.Post
	post.Author = &model.UserSummary{
		ID:        row.AuthorID,
		FullName:  row.AuthorName,
		AvatarURL: row.AuthorAvatar,
	}
	return post
}

// Create inserts a new post and increments the author's post_count in a
// transaction, so the counter cannot drift from the post set.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO posts (user_id, title, summary, content, category, cover)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		post.UserID,
		post.Title,
		post.Summary,
		post.Content,
		post.Category,
		post.Cover,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET post_count = post_count + 1 WHERE id = $1`, post.UserID)
	if err != nil {
		return fmt.Errorf("increment post count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a single post with its author expanded.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `
		SELECT p.id, p.user_id, p.title, p.summary, p.content, p.category, p.cover,
		       p.created_at, p.updated_at,
		       u.id AS author_id, u.full_name AS author_name, u.avatar_url AS author_avatar
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	var row postWithAuthor
	err := r.db.GetContext(ctx, &row, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	post := row.toPost()
	return &post, nil
}

// GetRecent returns up to limit posts, newest first, with authors expanded.
func (r *postRepository) GetRecent(ctx context.Context, limit int) ([]model.Post, error) {
	query := `
		SELECT p.id, p.user_id, p.title, p.summary, p.content, p.category, p.cover,
		       p.created_at, p.updated_at,
		       u.id AS author_id, u.full_name AS author_name, u.avatar_url AS author_avatar
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`
	var rows []postWithAuthor
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].toPost()
	}
	return posts, nil
}

// Update persists the mutable post fields. Ownership is validated by the
// service layer before this is called.
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE posts
		SET title = $1, summary = $2, content = $3, cover = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Summary,
		post.Content,
		post.Cover,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrPostNotFound
	}

	return nil
}

// Delete hard-deletes a post and decrements the author's post_count in a
// transaction.
func (r *postRepository) Delete(ctx context.Context, postID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Check if post exists but belongs to a different user
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
			return fmt.Errorf("check post existence: %w", err)
		}
		if exists {
			return model.ErrNotPostAuthor
		}
		return model.ErrPostNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET post_count = post_count - 1 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("decrement post count: %w", err)
	}

	return tx.Commit()
}
