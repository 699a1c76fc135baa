package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"cardquiz/internal/database"
	"cardquiz/internal/models"
)

// QuestionRepository handles database operations for the quiz catalog
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, quiz_id, prompt, question_kind, media_ref, option_kind,
	options, answer, hint, category, level, active, created_at`

func scanQuestion(row interface{ Scan(dest ...any) error }) (*models.Question, error) {
	q := &models.Question{}
	var kind, optionKind, options string
	err := row.Scan(
		&q.ID,
		&q.QuizID,
		&q.Prompt,
		&kind,
		&q.MediaRef,
		&optionKind,
		&options,
		&q.Answer,
		&q.Hint,
		&q.Category,
		&q.Level,
		&q.Active,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Kind = models.QuestionKind(kind)
	q.OptionKind = models.OptionKind(optionKind)
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("question %d has malformed options: %w", q.ID, err)
	}
	return q, nil
}

// Create validates and inserts a question
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("invalid question %q: %w", q.Prompt, err)
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	query := `
		INSERT INTO questions (quiz_id, prompt, question_kind, media_ref, option_kind, options, answer, hint, category, level, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		q.QuizID, q.Prompt, string(q.Kind), q.MediaRef, string(q.OptionKind),
		string(options), q.Answer, q.Hint, q.Category, q.Level, q.Active)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	q.ID = id
	return nil
}

// DeleteQuiz removes every question of a quiz
func (r *QuestionRepository) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE quiz_id = ?", quizID); err != nil {
		return fmt.Errorf("failed to delete quiz %s: %w", quizID, err)
	}
	return nil
}

// ActiveQuestions returns the active questions of a quiz in insertion order.
// A level of 0 or less returns every level.
func (r *QuestionRepository) ActiveQuestions(ctx context.Context, quizID string, level int) ([]models.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE quiz_id = ? AND active = ?"
	args := []interface{}{quizID, true}
	if level > 0 {
		query += " AND level = ?"
		args = append(args, level)
	}
	query += " ORDER BY id ASC"

	return r.query(ctx, query, args...)
}

// AllQuestions returns the whole catalog, ordered by quiz then id
func (r *QuestionRepository) AllQuestions(ctx context.Context) ([]models.Question, error) {
	return r.query(ctx, "SELECT "+questionColumns+" FROM questions ORDER BY quiz_id, id")
}

func (r *QuestionRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// ListQuizzes summarizes the active catalog by quiz id
func (r *QuestionRepository) ListQuizzes(ctx context.Context) ([]models.QuizSummary, error) {
	query := `
		SELECT quiz_id, category, level, COUNT(*)
		FROM questions
		WHERE active = ?
		GROUP BY quiz_id, category, level
		ORDER BY quiz_id
	`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	defer rows.Close()

	byQuiz := make(map[string]*models.QuizSummary)
	var order []string
	for rows.Next() {
		var quizID, category string
		var level, count int
		if err := rows.Scan(&quizID, &category, &level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan quiz summary: %w", err)
		}
		s, ok := byQuiz[quizID]
		if !ok {
			s = &models.QuizSummary{QuizID: quizID}
			byQuiz[quizID] = s
			order = append(order, quizID)
		}
		s.QuestionCount += count
		s.Categories = appendUnique(s.Categories, category)
		s.Levels = appendUniqueInt(s.Levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]models.QuizSummary, 0, len(order))
	for _, id := range order {
		s := byQuiz[id]
		sort.Strings(s.Categories)
		sort.Ints(s.Levels)
		summaries = append(summaries, *s)
	}
	return summaries, nil
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func appendUniqueInt(list []int, v int) []int {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
