package question

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultMissTTL = 2 * time.Minute

// MissCache remembers (difficulty, topic) pairs the bank had nothing for, so
// repeated requests skip lookups that are known to come back empty.
type MissCache interface {
	Missing(ctx context.Context, difficulty Difficulty, topics []string) (map[string]bool, error)
	MarkMissing(ctx context.Context, difficulty Difficulty, topics []string) error
	Clear(ctx context.Context, qs []Question) error
}

// Cache is the Redis-backed MissCache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ MissCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultMissTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(difficulty Difficulty, topic string) string {
	sum := sha256.Sum256([]byte(topic))
	return strings.Join([]string{
		"questionbank",
		"miss",
		strings.ToLower(string(difficulty)),
		hex.EncodeToString(sum[:8]),
	}, ":")
}

func (c *Cache) Missing(ctx context.Context, difficulty Difficulty, topics []string) (map[string]bool, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	keys := make([]string, len(topics))
	for i, topic := range topics {
		keys[i] = c.key(difficulty, topic)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	missing := make(map[string]bool)
	for i, v := range vals {
		if v != nil {
			missing[topics[i]] = true
		}
	}
	return missing, nil
}

func (c *Cache) MarkMissing(ctx context.Context, difficulty Difficulty, topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, topic := range topics {
		pipe.Set(ctx, c.key(difficulty, topic), 1, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Clear forgets misses for the topics of freshly saved questions.
func (c *Cache) Clear(ctx context.Context, qs []Question) error {
	if len(qs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(qs))
	for _, q := range qs {
		keys = append(keys, c.key(q.Difficulty, q.SubTopic))
	}
	return c.client.Del(ctx, keys...).Err()
}
