package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quillblog/internal/model"
)

const (
	// FeedCacheKey holds the rendered recent feed. There is a single global
	// feed, so a single key suffices.
	FeedCacheKey = "feed:recent"

	// FeedCacheTTL bounds staleness between mutations and cache expiry.
	FeedCacheTTL = 30 * time.Second
)

// RecentFeedCache caches the rendered recent-posts feed.
// Using an interface enables testing with mocks and potential future backends.
type RecentFeedCache interface {
	// Get returns the cached feed. found=false on a cache miss.
	Get(ctx context.Context) (posts []model.Post, found bool, err error)

	// Set stores the rendered feed with the cache TTL.
	Set(ctx context.Context, posts []model.Post) error

	// Invalidate drops the cached feed. Called after any post mutation.
	Invalidate(ctx context.Context) error
}

// redisFeedCache implements RecentFeedCache on Redis with JSON values.
type redisFeedCache struct {
	client *redis.Client
}

func NewRecentFeedCache(client *redis.Client) RecentFeedCache {
	return &redisFeedCache{client: client}
}

func (c *redisFeedCache) Get(ctx context.Context) ([]model.Post, bool, error) {
	raw, err := c.client.Get(ctx, FeedCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get feed cache: %w", err)
	}

	var posts []model.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		// Treat a corrupt entry as a miss so the caller falls through to the DB.
		return nil, false, fmt.Errorf("decode feed cache: %w", err)
	}
	return posts, true, nil
}

func (c *redisFeedCache) Set(ctx context.Context, posts []model.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode feed cache: %w", err)
	}
	if err := c.client.Set(ctx, FeedCacheKey, raw, FeedCacheTTL).Err(); err != nil {
		return fmt.Errorf("set feed cache: %w", err)
	}
	return nil
}

func (c *redisFeedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, FeedCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate feed cache: %w", err)
	}
	return nil
}
