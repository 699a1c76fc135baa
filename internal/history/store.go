// Package history keeps the offline quiz-history list per user.
package history

import (
	"context"
	"encoding/json"
	"log"

	"cardquiz/internal/models"
)

// MaxItems caps the stored list; the oldest entries are dropped first
const MaxItems = 200

// Store reads and writes a user's history list. Load never fails on
// malformed stored data: it reads as an empty history.
type Store interface {
	Load(ctx context.Context, userID int64) ([]models.HistoryItem, error)
	Save(ctx context.Context, userID int64, items []models.HistoryItem) error
	// Append adds one item atomically with respect to other writers of the
	// same user's list
	Append(ctx context.Context, userID int64, item models.HistoryItem) error
}

// Append adds one item to a user's history
func Append(ctx context.Context, s Store, userID int64, item models.HistoryItem) error {
	return s.Append(ctx, userID, item)
}

func decode(userID int64, data []byte) []models.HistoryItem {
	if len(data) == 0 {
		return []models.HistoryItem{}
	}
	var items []models.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("history for user %d is malformed, treating as empty: %v", userID, err)
		return []models.HistoryItem{}
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return items
}

func encode(items []models.HistoryItem) ([]byte, error) {
	if len(items) > MaxItems {
		items = items[len(items)-MaxItems:]
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return json.Marshal(items)
}
