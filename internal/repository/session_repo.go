package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cardquiz/internal/database"
	"cardquiz/internal/models"
)

// SessionRepository handles quiz session and interaction records
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, quiz_id, started_at, ended_at, duration_seconds,
	correct_count, wrong_count, words_seen, mood`

func scanSession(row interface{ Scan(dest ...any) error }) (*models.QuizSession, error) {
	s := &models.QuizSession{}
	var endedAt sql.NullTime
	var wordsSeen string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.QuizID,
		&s.StartedAt,
		&endedAt,
		&s.DurationSeconds,
		&s.CorrectCount,
		&s.WrongCount,
		&wordsSeen,
		&s.Mood,
	)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	if wordsSeen != "" {
		// A malformed list is not worth failing the read over
		_ = json.Unmarshal([]byte(wordsSeen), &s.WordsSeen)
	}
	return s, nil
}

func encodeWords(words []string) string {
	if len(words) == 0 {
		return "[]"
	}
	b, err := json.Marshal(words)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Timestamps are stored in UTC so range filters compare consistently on sqlite.

// CreateSession opens a new session row
func (r *SessionRepository) CreateSession(ctx context.Context, userID int64, quizID string, startedAt time.Time) (*models.QuizSession, error) {
	query := `
		INSERT INTO quiz_sessions (user_id, quiz_id, started_at, words_seen, mood)
		VALUES (?, ?, ?, '[]', '')
	`
	id, err := r.db.ExecReturningID(ctx, query, userID, quizID, startedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.QuizSession{
		ID:        id,
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: startedAt,
	}, nil
}

// GetSessionByID retrieves a session. Returns nil when not found.
func (r *SessionRepository) GetSessionByID(ctx context.Context, id int64) (*models.QuizSession, error) {
	query := "SELECT " + sessionColumns + " FROM quiz_sessions WHERE id = ?"
	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// CloseSession writes the final state of an open session.
// It reports false when the session was already closed; nothing is written then.
func (r *SessionRepository) CloseSession(ctx context.Context, id int64, endedAt time.Time, durationSeconds int, counters models.SessionCounters, mood string) (bool, error) {
	query := `
		UPDATE quiz_sessions
		SET ended_at = ?, duration_seconds = ?, correct_count = ?, wrong_count = ?, words_seen = ?, mood = ?
		WHERE id = ? AND ended_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		endedAt.UTC(), durationSeconds, counters.CorrectCount, counters.WrongCount,
		encodeWords(counters.WordsSeen), mood, id)
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read close result: %w", err)
	}
	return n > 0, nil
}

// DiscardOpenSession deletes a session that is still open
func (r *SessionRepository) DiscardOpenSession(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM quiz_sessions WHERE id = ? AND ended_at IS NULL", id); err != nil {
		return fmt.Errorf("failed to discard session: %w", err)
	}
	return nil
}

// ImportSession inserts a complete session record, used by restores
func (r *SessionRepository) ImportSession(ctx context.Context, s *models.QuizSession) error {
	query := `
		INSERT INTO quiz_sessions (user_id, quiz_id, started_at, ended_at, duration_seconds, correct_count, wrong_count, words_seen, mood)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var endedAt sql.NullTime
	if s.EndedAt != nil {
		endedAt = sql.NullTime{Time: s.EndedAt.UTC(), Valid: true}
	}
	id, err := r.db.ExecReturningID(ctx, query,
		s.UserID, s.QuizID, s.StartedAt.UTC(), endedAt, s.DurationSeconds,
		s.CorrectCount, s.WrongCount, encodeWords(s.WordsSeen), s.Mood)
	if err != nil {
		return fmt.Errorf("failed to import session: %w", err)
	}
	s.ID = id
	return nil
}

// AddInteraction appends an interaction to a session
func (r *SessionRepository) AddInteraction(ctx context.Context, in *models.Interaction) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO interactions (session_id, prompt, correct, retry_count, time_taken_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		in.SessionID, in.Prompt, in.Correct, in.RetryCount, in.TimeTakenSeconds, in.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add interaction: %w", err)
	}
	in.ID = id
	return nil
}

// SessionsForUser lists a user's sessions started at or after since, oldest first.
// A zero since returns every session.
func (r *SessionRepository) SessionsForUser(ctx context.Context, userID int64, since time.Time) ([]models.QuizSession, error) {
	query := "SELECT " + sessionColumns + " FROM quiz_sessions WHERE user_id = ? AND started_at >= ? ORDER BY started_at ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.QuizSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// InteractionsForUser lists the interactions of a user's sessions started at or after since
func (r *SessionRepository) InteractionsForUser(ctx context.Context, userID int64, since time.Time) ([]models.Interaction, error) {
	query := `
		SELECT i.id, i.session_id, i.prompt, i.correct, i.retry_count, i.time_taken_seconds, i.created_at
		FROM interactions i
		JOIN quiz_sessions s ON s.id = i.session_id
		WHERE s.user_id = ? AND s.started_at >= ?
		ORDER BY i.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Prompt, &in.Correct, &in.RetryCount, &in.TimeTakenSeconds, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// InteractionsForSession lists the interactions of one session in order
func (r *SessionRepository) InteractionsForSession(ctx context.Context, sessionID int64) ([]models.Interaction, error) {
	query := `
		SELECT id, session_id, prompt, correct, retry_count, time_taken_seconds, created_at
		FROM interactions
		WHERE session_id = ?
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Prompt, &in.Correct, &in.RetryCount, &in.TimeTakenSeconds, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}
