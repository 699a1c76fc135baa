package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"cardquiz/internal/database"
	"cardquiz/internal/models"
	"cardquiz/internal/repository"
)

var ErrQuizNotFound = errors.New("quiz not found")

// QuestionCache is an optional read-through cache for question sets
type QuestionCache interface {
	Get(ctx context.Context, quizID string, level int) ([]models.Question, error)
	Set(ctx context.Context, quizID string, level int, questions []models.Question) error
	Invalidate(ctx context.Context, quizID string) error
}

// QuizFile is the on-disk seed format for one quiz
type QuizFile struct {
	QuizID    string         `json:"quiz_id"`
	Category  string         `json:"category"`
	Level     int            `json:"level"`
	Questions []QuizFileItem `json:"questions"`
}

// QuizFileItem is one question in a seed file. Category and level
// default to the file's values.
type QuizFileItem struct {
	Prompt     string   `json:"prompt"`
	Kind       string   `json:"kind"`
	Media      string   `json:"media,omitempty"`
	OptionKind string   `json:"option_kind"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Hint       string   `json:"hint,omitempty"`
	Category   string   `json:"category,omitempty"`
	Level      int      `json:"level,omitempty"`
	Inactive   bool     `json:"inactive,omitempty"`
}

// CatalogService reads and seeds the question catalog
type CatalogService struct {
	db    *database.DB
	repo  *repository.QuestionRepository
	cache QuestionCache
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(db *database.DB, cache QuestionCache) *CatalogService {
	return &CatalogService{
		db:    db,
		repo:  repository.NewQuestionRepository(db),
		cache: cache,
	}
}

// ActiveQuestions returns the active questions of a quiz, filtered by level
// when level > 0. An empty set is ErrQuizNotFound.
func (s *CatalogService) ActiveQuestions(ctx context.Context, quizID string, level int) ([]models.Question, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, quizID, level)
		if err != nil {
			log.Printf("catalog cache read failed for %s/%d: %v", quizID, level, err)
		} else if len(cached) > 0 {
			return cached, nil
		}
	}

	questions, err := s.repo.ActiveQuestions(ctx, quizID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz %s: %w", quizID, err)
	}
	if len(questions) == 0 {
		return nil, ErrQuizNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, quizID, level, questions); err != nil {
			log.Printf("catalog cache write failed for %s/%d: %v", quizID, level, err)
		}
	}
	return questions, nil
}

// ListQuizzes summarizes the active catalog
func (s *CatalogService) ListQuizzes(ctx context.Context) ([]models.QuizSummary, error) {
	return s.repo.ListQuizzes(ctx)
}

// AllQuestions returns every question, active or not
func (s *CatalogService) AllQuestions(ctx context.Context) ([]models.Question, error) {
	return s.repo.AllQuestions(ctx)
}

// ReplaceQuiz swaps a quiz's questions for those in file, atomically
func (s *CatalogService) ReplaceQuiz(ctx context.Context, file QuizFile) (int, error) {
	if file.QuizID == "" {
		return 0, errors.New("quiz file has no quiz_id")
	}
	questions := file.toQuestions()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repo := repository.NewQuestionRepository(tx)
	if err := repo.DeleteQuiz(ctx, file.QuizID); err != nil {
		return 0, err
	}
	for i := range questions {
		if err := repo.Create(ctx, &questions[i]); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit quiz %s: %w", file.QuizID, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, file.QuizID); err != nil {
			log.Printf("catalog cache invalidate failed for %s: %v", file.QuizID, err)
		}
	}
	return len(questions), nil
}

// SeedFromDir loads every *.json quiz file in dir, in name order
func (s *CatalogService) SeedFromDir(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list quiz files: %w", err)
	}
	sort.Strings(files)

	total := 0
	for _, path := range files {
		file, err := ReadQuizFile(path)
		if err != nil {
			return total, err
		}
		n, err := s.ReplaceQuiz(ctx, *file)
		if err != nil {
			return total, fmt.Errorf("failed to seed %s: %w", filepath.Base(path), err)
		}
		log.Printf("Seeded quiz %s: %d questions", file.QuizID, n)
		total += n
	}
	return total, nil
}

// ReadQuizFile decodes a quiz seed file
func ReadQuizFile(path string) (*QuizFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz file: %w", err)
	}
	var file QuizFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &file, nil
}

func (f QuizFile) toQuestions() []models.Question {
	questions := make([]models.Question, 0, len(f.Questions))
	for _, item := range f.Questions {
		q := models.Question{
			QuizID:     f.QuizID,
			Prompt:     item.Prompt,
			Kind:       models.QuestionKind(item.Kind),
			MediaRef:   item.Media,
			OptionKind: models.OptionKind(item.OptionKind),
			Options:    item.Options,
			Answer:     item.Answer,
			Hint:       item.Hint,
			Category:   item.Category,
			Level:      item.Level,
			Active:     !item.Inactive,
		}
		if q.Kind == "" {
			q.Kind = models.QuestionText
		}
		if q.OptionKind == "" {
			q.OptionKind = models.OptionText
		}
		if q.Category == "" {
			q.Category = f.Category
		}
		if q.Level == 0 {
			q.Level = f.Level
		}
		if q.Level == 0 {
			q.Level = 1
		}
		questions = append(questions, q)
	}
	return questions
}
