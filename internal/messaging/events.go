package messaging

import (
	"context"
	"time"
)

// SessionClosedEvent is published once per quiz session when it closes
type SessionClosedEvent struct {
	SessionID       int64     `json:"session_id"`
	UserID          int64     `json:"user_id"`
	QuizID          string    `json:"quiz_id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
	CorrectCount    int       `json:"correct_count"`
	WrongCount      int       `json:"wrong_count"`
	WordsSeen       []string  `json:"words_seen"`
	Mood            string    `json:"mood"`
	AutoClosed      bool      `json:"auto_closed"`
}

// Publisher sends session events to downstream consumers
type Publisher interface {
	PublishSessionClosed(ctx context.Context, ev SessionClosedEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionClosed(context.Context, SessionClosedEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
