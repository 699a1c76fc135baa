package models

import "time"

// HistoryItem is one entry of the offline quiz history kept per user.
// The JSON field names match what the mobile client stores.
type HistoryItem struct {
	QuizID      string    `json:"quiz_id"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Accuracy    float64   `json:"accuracy"`
	TimeSpent   string    `json:"time_spent"`
	LastAttempt time.Time `json:"last_attempt"`
}
