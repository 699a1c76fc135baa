package service

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"cardquiz/internal/messaging"
	"cardquiz/internal/models"
)

// SessionStore is the persistence the recorder needs
type SessionStore interface {
	CreateSession(ctx context.Context, userID int64, quizID string, startedAt time.Time) (*models.QuizSession, error)
	AddInteraction(ctx context.Context, in *models.Interaction) error
	CloseSession(ctx context.Context, id int64, endedAt time.Time, durationSeconds int, counters models.SessionCounters, mood string) (bool, error)
	DiscardOpenSession(ctx context.Context, id int64) error
}

// RecordedSession is the handle for one open session. It closes at most once.
type RecordedSession struct {
	ID        int64
	UserID    int64
	QuizID    string
	StartedAt time.Time

	closed atomic.Bool
}

// Closed reports whether a close or discard has been claimed
func (rs *RecordedSession) Closed() bool {
	return rs.closed.Load()
}

// SessionRecorder persists sessions and interactions on a best-effort basis.
// Store failures are logged and never returned to the quiz flow.
type SessionRecorder struct {
	store     SessionStore
	publisher messaging.Publisher
	now       func() time.Time
}

// NewSessionRecorder creates a recorder. publisher may be nil.
func NewSessionRecorder(store SessionStore, publisher messaging.Publisher) *SessionRecorder {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &SessionRecorder{store: store, publisher: publisher, now: time.Now}
}

// Open starts a session for userID. It returns nil for guests and on store failure.
func (r *SessionRecorder) Open(ctx context.Context, userID int64, quizID string) *RecordedSession {
	if userID == 0 {
		log.Printf("guest attempt on quiz %s: session not recorded", quizID)
		return nil
	}

	session, err := r.store.CreateSession(ctx, userID, quizID, r.now())
	if err != nil {
		log.Printf("failed to open session for user %d quiz %s: %v", userID, quizID, err)
		return nil
	}

	return &RecordedSession{
		ID:        session.ID,
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: session.StartedAt,
	}
}

// LogInteraction appends one answer to the session
func (r *SessionRecorder) LogInteraction(ctx context.Context, rs *RecordedSession, prompt string, correct bool, retryCount int, elapsed time.Duration) {
	if rs == nil {
		return
	}

	in := &models.Interaction{
		SessionID:        rs.ID,
		Prompt:           prompt,
		Correct:          correct,
		RetryCount:       retryCount,
		TimeTakenSeconds: elapsed.Seconds(),
		CreatedAt:        r.now(),
	}
	if err := r.store.AddInteraction(ctx, in); err != nil {
		log.Printf("failed to log interaction for session %d: %v", rs.ID, err)
	}
}

// Close finalizes the session with counters and mood. Only the first call
// on a handle writes; it reports whether this call did.
func (r *SessionRecorder) Close(ctx context.Context, rs *RecordedSession, counters models.SessionCounters, mood models.Mood) bool {
	return r.close(ctx, rs, counters, mood, false)
}

// AutoClose is the teardown path. With at least one answer the session is
// closed with the neutral mood; an untouched session is discarded.
func (r *SessionRecorder) AutoClose(ctx context.Context, rs *RecordedSession, counters models.SessionCounters) bool {
	if rs == nil {
		return false
	}
	if counters.Answered() {
		return r.close(ctx, rs, counters, models.MoodNeutral, true)
	}

	if !rs.closed.CompareAndSwap(false, true) {
		return false
	}
	if err := r.store.DiscardOpenSession(ctx, rs.ID); err != nil {
		log.Printf("failed to discard empty session %d: %v", rs.ID, err)
	}
	return true
}

func (r *SessionRecorder) close(ctx context.Context, rs *RecordedSession, counters models.SessionCounters, mood models.Mood, auto bool) bool {
	if rs == nil || !rs.closed.CompareAndSwap(false, true) {
		return false
	}

	endedAt := r.now()
	duration := int(endedAt.Sub(rs.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	written, err := r.store.CloseSession(ctx, rs.ID, endedAt, duration, counters, string(mood))
	if err != nil {
		log.Printf("failed to close session %d: %v", rs.ID, err)
		return false
	}
	if !written {
		log.Printf("session %d was already closed", rs.ID)
		return false
	}

	ev := messaging.SessionClosedEvent{
		SessionID:       rs.ID,
		UserID:          rs.UserID,
		QuizID:          rs.QuizID,
		StartedAt:       rs.StartedAt,
		EndedAt:         endedAt,
		DurationSeconds: duration,
		CorrectCount:    counters.CorrectCount,
		WrongCount:      counters.WrongCount,
		WordsSeen:       counters.WordsSeen,
		Mood:            string(mood),
		AutoClosed:      auto,
	}
	if err := r.publisher.PublishSessionClosed(ctx, ev); err != nil {
		log.Printf("failed to publish close of session %d: %v", rs.ID, err)
	}
	return true
}
