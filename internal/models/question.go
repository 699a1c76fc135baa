package models

import (
	"errors"
	"fmt"
	"time"
)

// QuestionKind is how the prompt is presented
type QuestionKind string

const (
	QuestionText  QuestionKind = "text"
	QuestionImage QuestionKind = "image"
	QuestionAudio QuestionKind = "audio"
)

// OptionKind is how the answer options are presented
type OptionKind string

const (
	OptionText  OptionKind = "text"
	OptionImage OptionKind = "image"
)

var (
	ErrTooFewOptions      = errors.New("question needs at least two options")
	ErrAnswerNotInOptions = errors.New("answer must be one of the options")
)

// Question is a single multiple-choice item in a quiz
type Question struct {
	ID         int64
	QuizID     string
	Prompt     string
	Kind       QuestionKind
	MediaRef   string // logical media name, resolved through the manifest
	OptionKind OptionKind
	Options    []string
	Answer     string
	Hint       string
	Category   string
	Level      int
	Active     bool
	CreatedAt  time.Time
}

// Validate checks the structural invariants of a question
func (q *Question) Validate() error {
	if q.QuizID == "" {
		return errors.New("quiz id is required")
	}
	if q.Prompt == "" {
		return errors.New("prompt is required")
	}
	switch q.Kind {
	case QuestionText, QuestionImage, QuestionAudio:
	default:
		return fmt.Errorf("unknown question kind %q", q.Kind)
	}
	switch q.OptionKind {
	case OptionText, OptionImage:
	default:
		return fmt.Errorf("unknown option kind %q", q.OptionKind)
	}
	if len(q.Options) < 2 {
		return ErrTooFewOptions
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return ErrAnswerNotInOptions
}

// QuizSummary describes a quiz in the catalog listing
type QuizSummary struct {
	QuizID        string   `json:"quiz_id"`
	Categories    []string `json:"categories"`
	Levels        []int    `json:"levels"`
	QuestionCount int      `json:"question_count"`
}
