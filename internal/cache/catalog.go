package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cardquiz/internal/models"
)

const catalogKeyPrefix = "catalog:quiz:"

// CatalogCache caches active question sets in Redis.
// Each quiz is one hash keyed by level, so a quiz is invalidated with one DEL.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache with the given TTL
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

func catalogKey(quizID string) string {
	return catalogKeyPrefix + quizID
}

// Get returns the cached questions, or (nil, nil) on a miss
func (c *CatalogCache) Get(ctx context.Context, quizID string, level int) ([]models.Question, error) {
	data, err := c.client.HGet(ctx, catalogKey(quizID), strconv.Itoa(level)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var questions []models.Question
	if err := json.Unmarshal([]byte(data), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Set stores questions for a quiz level and refreshes the quiz TTL
func (c *CatalogCache) Set(ctx context.Context, quizID string, level int, questions []models.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	key := catalogKey(quizID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(level), data)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate drops every cached level of a quiz
func (c *CatalogCache) Invalidate(ctx context.Context, quizID string) error {
	return c.client.Del(ctx, catalogKey(quizID)).Err()
}
