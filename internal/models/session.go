package models

import "time"

// QuizSession is one persisted play-through of a quiz by a signed-in user
type QuizSession struct {
	ID              int64
	UserID          int64
	QuizID          string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int
	CorrectCount    int
	WrongCount      int
	WordsSeen       []string
	Mood            string
}

// IsOpen reports whether the session has not been closed yet
func (s *QuizSession) IsOpen() bool {
	return s.EndedAt == nil
}

// HasActivity reports whether the session counts toward a day's activity
func (s *QuizSession) HasActivity() bool {
	return s.EndedAt != nil || s.CorrectCount > 0 || s.WrongCount > 0
}

// Interaction is a single answer submission within a session
type Interaction struct {
	ID               int64
	SessionID        int64
	Prompt           string
	Correct          bool
	RetryCount       int
	TimeTakenSeconds float64
	CreatedAt        time.Time
}

// SessionCounters are the running totals written when a session closes
type SessionCounters struct {
	CorrectCount int
	WrongCount   int
	WordsSeen    []string
}

// Answered reports whether at least one answer was recorded
func (c SessionCounters) Answered() bool {
	return c.CorrectCount+c.WrongCount > 0
}
