package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"cardquiz/internal/database"
	"cardquiz/internal/models"
	"cardquiz/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Users      []UserBackup     `json:"users"`
	Questions  []QuestionBackup `json:"questions"`
	Sessions   []SessionBackup  `json:"sessions"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuestionBackup represents a catalog question for backup
type QuestionBackup struct {
	QuizID     string   `json:"quiz_id"`
	Prompt     string   `json:"prompt"`
	Kind       string   `json:"kind"`
	MediaRef   string   `json:"media_ref"`
	OptionKind string   `json:"option_kind"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Hint       string   `json:"hint"`
	Category   string   `json:"category"`
	Level      int      `json:"level"`
	Active     bool     `json:"active"`
}

// SessionBackup represents a quiz session with its interactions
type SessionBackup struct {
	UserID          int64               `json:"user_id"`
	QuizID          string              `json:"quiz_id"`
	StartedAt       time.Time           `json:"started_at"`
	EndedAt         *time.Time          `json:"ended_at"`
	DurationSeconds int                 `json:"duration_seconds"`
	CorrectCount    int                 `json:"correct_count"`
	WrongCount      int                 `json:"wrong_count"`
	WordsSeen       []string            `json:"words_seen"`
	Mood            string              `json:"mood"`
	Interactions    []InteractionBackup `json:"interactions"`
}

// InteractionBackup represents one answer within a session
type InteractionBackup struct {
	Prompt           string    `json:"prompt"`
	Correct          bool      `json:"correct"`
	RetryCount       int       `json:"retry_count"`
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup of users, the catalog and recorded sessions to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportUsers(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportQuestions(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export questions: %w", err)
	}
	if err := s.exportSessions(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d questions, %d sessions",
		len(backup.Users), len(backup.Questions), len(backup.Sessions))
	return backup, nil
}

// Import restores a backup read from r in a single transaction.
// Quizzes present in the backup replace the existing ones.
func (s *BackupService) Import(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := importUsers(ctx, tx, backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if q := tx.GetDialect().ResetSequenceQuery("users"); q != "" {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to reset user id sequence: %w", err)
		}
	}
	if err := importQuestions(ctx, tx, backup.Questions); err != nil {
		return fmt.Errorf("failed to import questions: %w", err)
	}
	if err := importSessions(ctx, tx, backup.Sessions); err != nil {
		return fmt.Errorf("failed to import sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	log.Println("Database import completed successfully")
	return nil
}

// Clear deletes every row, children first
func (s *BackupService) Clear(ctx context.Context) error {
	tables := []string{
		"interactions",
		"quiz_sessions",
		"questions",
		"password_reset_tokens",
		"auth_sessions",
		"users",
	}

	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		log.Printf("Cleared table: %s", table)
	}
	return nil
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) error {
	query := `SELECT id, email, password_hash, full_name, COALESCE(phone, ''),
		COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at
		FROM users ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.OAuthProvider, &u.OAuthSubject, &u.CreatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportQuestions(ctx context.Context, backup *BackupData) error {
	questions, err := repository.NewQuestionRepository(s.db).AllQuestions(ctx)
	if err != nil {
		return err
	}
	for _, q := range questions {
		backup.Questions = append(backup.Questions, QuestionBackup{
			QuizID:     q.QuizID,
			Prompt:     q.Prompt,
			Kind:       string(q.Kind),
			MediaRef:   q.MediaRef,
			OptionKind: string(q.OptionKind),
			Options:    q.Options,
			Answer:     q.Answer,
			Hint:       q.Hint,
			Category:   q.Category,
			Level:      q.Level,
			Active:     q.Active,
		})
	}
	return nil
}

func (s *BackupService) exportSessions(ctx context.Context, backup *BackupData) error {
	sessions := repository.NewSessionRepository(s.db)
	for _, u := range backup.Users {
		recorded, err := sessions.SessionsForUser(ctx, u.ID, time.Time{})
		if err != nil {
			return err
		}
		for _, rs := range recorded {
			interactions, err := sessions.InteractionsForSession(ctx, rs.ID)
			if err != nil {
				return err
			}
			sb := SessionBackup{
				UserID:          rs.UserID,
				QuizID:          rs.QuizID,
				StartedAt:       rs.StartedAt,
				EndedAt:         rs.EndedAt,
				DurationSeconds: rs.DurationSeconds,
				CorrectCount:    rs.CorrectCount,
				WrongCount:      rs.WrongCount,
				WordsSeen:       rs.WordsSeen,
				Mood:            rs.Mood,
			}
			for _, in := range interactions {
				sb.Interactions = append(sb.Interactions, InteractionBackup{
					Prompt:           in.Prompt,
					Correct:          in.Correct,
					RetryCount:       in.RetryCount,
					TimeTakenSeconds: in.TimeTakenSeconds,
					CreatedAt:        in.CreatedAt,
				})
			}
			backup.Sessions = append(backup.Sessions, sb)
		}
	}
	return nil
}

func importUsers(ctx context.Context, tx *database.Tx, users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	query := `INSERT INTO users (id, email, password_hash, full_name, phone, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range users {
		_, err := tx.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.FullName,
			nullIfEmpty(u.Phone), nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.CreatedAt.UTC(), u.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importQuestions(ctx context.Context, tx *database.Tx, questions []QuestionBackup) error {
	log.Printf("Importing %d questions...", len(questions))
	repo := repository.NewQuestionRepository(tx)

	replaced := make(map[string]bool)
	for _, qb := range questions {
		if !replaced[qb.QuizID] {
			if err := repo.DeleteQuiz(ctx, qb.QuizID); err != nil {
				return err
			}
			replaced[qb.QuizID] = true
		}

		q := models.Question{
			QuizID:     qb.QuizID,
			Prompt:     qb.Prompt,
			Kind:       models.QuestionKind(qb.Kind),
			MediaRef:   qb.MediaRef,
			OptionKind: models.OptionKind(qb.OptionKind),
			Options:    qb.Options,
			Answer:     qb.Answer,
			Hint:       qb.Hint,
			Category:   qb.Category,
			Level:      qb.Level,
			Active:     qb.Active,
		}
		if err := repo.Create(ctx, &q); err != nil {
			return fmt.Errorf("failed to import question %q of %s: %w", qb.Prompt, qb.QuizID, err)
		}
	}
	return nil
}

func importSessions(ctx context.Context, tx *database.Tx, sessions []SessionBackup) error {
	log.Printf("Importing %d sessions...", len(sessions))
	repo := repository.NewSessionRepository(tx)
	query := `INSERT INTO interactions (session_id, prompt, correct, retry_count, time_taken_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, sb := range sessions {
		rs := &models.QuizSession{
			UserID:          sb.UserID,
			QuizID:          sb.QuizID,
			StartedAt:       sb.StartedAt,
			EndedAt:         sb.EndedAt,
			DurationSeconds: sb.DurationSeconds,
			CorrectCount:    sb.CorrectCount,
			WrongCount:      sb.WrongCount,
			WordsSeen:       sb.WordsSeen,
			Mood:            sb.Mood,
		}
		if err := repo.ImportSession(ctx, rs); err != nil {
			return err
		}
		for _, in := range sb.Interactions {
			if _, err := tx.ExecContext(ctx, query, rs.ID, in.Prompt, in.Correct, in.RetryCount, in.TimeTakenSeconds, in.CreatedAt.UTC()); err != nil {
				return fmt.Errorf("failed to import interaction for session %d: %w", rs.ID, err)
			}
		}
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
