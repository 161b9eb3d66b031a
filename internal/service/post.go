package service

import (
	"context"
	"fmt"
	"log"

	"quillblog/internal/cache"
	"quillblog/internal/model"
	"quillblog/internal/repository"
)

type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	feedCache cache.RecentFeedCache
}

// NewPostService wires post business logic. feedCache may be nil when Redis
// is not configured; the service then always reads from the database.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	feedCache cache.RecentFeedCache,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		feedCache: feedCache,
	}
}

// Create creates a new post. The author must exist; the insert and the
// author's post_count increment happen in one transaction in the repository.
func (s *PostService) Create(ctx context.Context, userID int64, req model.CreatePostRequest) (*model.Post, error) {
	if req.Title == "" || req.Summary == "" || req.Content == "" || req.Category == "" {
		return nil, model.ErrMissingFields
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cover := req.Cover
	if cover == "" {
		cover = model.CoverFallback
	}

	post := &model.Post{
		UserID:   userID,
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		Category: req.Category,
		Cover:    cover,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.invalidateFeed(ctx)

	post.Author = &model.UserSummary{
		ID:        author.ID,
		FullName:  author.FullName,
		AvatarURL: author.AvatarURL,
	}

	return post, nil
}

// GetRecent returns the newest posts, capped at RecentFeedLimit, authors
// expanded. Served from the cache when warm; any cache failure falls through
// to the database.
func (s *PostService) GetRecent(ctx context.Context) ([]model.Post, error) {
	if s.feedCache != nil {
		posts, found, err := s.feedCache.Get(ctx)
		if err != nil {
			log.Printf("[PostService] Feed cache read failed: %v", err)
		} else if found {
			return posts, nil
		}
	}

	posts, err := s.postRepo.GetRecent(ctx, model.RecentFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	if s.feedCache != nil {
		if err := s.feedCache.Set(ctx, posts); err != nil {
			log.Printf("[PostService] Feed cache write failed: %v", err)
		}
	}

	return posts, nil
}

// GetByID retrieves a single post with its author expanded.
func (s *PostService) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// Update applies the mutation when the requester is the post's author.
// A nil Cover keeps the stored cover.
func (s *PostService) Update(ctx context.Context, userID int64, req model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if post.UserID != userID {
		return nil, model.ErrNotPostAuthor
	}

	post.Title = req.Title
	post.Summary = req.Summary
	post.Content = req.Content
	if req.Cover != nil {
		post.Cover = *req.Cover
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	s.invalidateFeed(ctx)

	return post, nil
}

// Delete removes a post owned by userID and decrements the author's
// post_count (in one transaction, in the repository).
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if err := s.postRepo.Delete(ctx, postID, userID); err != nil {
		return err
	}

	s.invalidateFeed(ctx)

	log.Printf("[PostService] User %d deleted post %d", userID, postID)
	return nil
}

func (s *PostService) invalidateFeed(ctx context.Context) {
	if s.feedCache == nil {
		return
	}
	if err := s.feedCache.Invalidate(ctx); err != nil {
		log.Printf("[PostService] Feed cache invalidation failed: %v", err)
	}
}
