package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"cardquiz/internal/models"

	"github.com/redis/go-redis/v9"
)

const historyKeyPrefix = "history:user:"

// appendRetries bounds optimistic retries when another writer changes the
// list between WATCH and EXEC
const appendRetries = 32

// RedisStore keeps each user's history as a JSON string. Entries do not expire.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func historyKey(userID int64) string {
	return historyKeyPrefix + strconv.FormatInt(userID, 10)
}

// Load returns an empty list when nothing is stored
func (s *RedisStore) Load(ctx context.Context, userID int64) ([]models.HistoryItem, error) {
	data, err := s.client.Get(ctx, historyKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.HistoryItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(userID, data), nil
}

func (s *RedisStore) Save(ctx context.Context, userID int64, items []models.HistoryItem) error {
	data, err := encode(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, historyKey(userID), data, 0).Err()
}

// Append reads and rewrites the list inside WATCH/MULTI so a concurrent
// writer aborts the transaction instead of being overwritten
func (s *RedisStore) Append(ctx context.Context, userID int64, item models.HistoryItem) error {
	key := historyKey(userID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		encoded, err := encode(append(decode(userID, data), item))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for i := 0; i < appendRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("history for user %d changed %d times during append", userID, appendRetries)
}
