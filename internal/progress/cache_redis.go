package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the durable local copy of progress documents. Entries carry
// no TTL: the cache must survive remote outages of any length.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a local progress cache over the given client.
func NewRedisCache(client *redis.Client) (*RedisCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisCache{client: client}, nil
}

func cacheKey(userID, courseID string) string {
	return fmt.Sprintf("progress:%s:%s", userID, courseID)
}

func (c *RedisCache) Get(ctx context.Context, userID, courseID string) (*UserCourseProgress, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID, courseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cached progress: %w", err)
	}
	return decodeDocument(raw, userID, courseID)
}

func (c *RedisCache) Put(ctx context.Context, p *UserCourseProgress) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(p.UserID, p.CourseID), doc, 0).Err(); err != nil {
		return fmt.Errorf("cache progress: %w", err)
	}
	return nil
}
