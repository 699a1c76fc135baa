// Package quiz holds the in-memory state machine for a single quiz attempt.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"cardquiz/internal/models"
)

// Phase is the quiz-level state
type Phase string

const (
	PhaseLoading       Phase = "loading"
	PhaseAnswering     Phase = "answering"
	PhaseMoodSelection Phase = "mood-selection"
	PhaseComplete      Phase = "complete"
)

// QuestionState is the per-question state
type QuestionState string

const (
	StateUnanswered     QuestionState = "unanswered"
	StateRetrying       QuestionState = "retrying"
	StateHintShown      QuestionState = "hint-shown"
	StateLockedCorrect  QuestionState = "locked-correct"
	StateLockedRevealed QuestionState = "locked-revealed"
)

// Retry policy timings
const (
	RetryClearDelay  = 1200 * time.Millisecond
	HintClearDelay   = 1500 * time.Millisecond
	CorrectReadyWait = 1 * time.Second
	RevealReadyWait  = 1500 * time.Millisecond

	// MaxWrongAttempts is the number of wrong answers after which the answer is revealed
	MaxWrongAttempts = 3
)

const tryAgainMessage = "Try again!"

var affirmations = []string{
	"Great job!",
	"Awesome!",
	"You got it!",
	"Well done!",
	"Fantastic!",
	"Brilliant!",
}

var (
	ErrNoQuestions   = errors.New("quiz has no active questions")
	ErrAlreadyLoaded = errors.New("attempt already loaded")
	ErrNotAnswering  = errors.New("attempt is not accepting answers")
	ErrUnknownOption = errors.New("option is not one of the choices")
	ErrNotReady      = errors.New("current question is not ready to advance")
	ErrNotSelecting  = errors.New("attempt is not waiting for a mood")
	ErrInvalidMood   = errors.New("unknown mood")
)

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

// Answer is one submission, forwarded to the session recorder
type Answer struct {
	Prompt     string
	Correct    bool
	RetryCount int
	Elapsed    time.Duration
}

// Feedback is the result of Submit
type Feedback struct {
	Ignored  bool    `json:"ignored"`
	Correct  bool    `json:"correct"`
	Message  string  `json:"message,omitempty"`
	Hint     string  `json:"hint,omitempty"`
	Revealed string  `json:"revealed,omitempty"`
	Locked   bool    `json:"locked"`
	Answer   *Answer `json:"-"`
}

// questionState is the transient per-question sub-state, reset on advance
type questionState struct {
	selected  string
	attempts  int // wrong submissions so far
	hintShown bool
	revealed  bool
	locked    bool
	ready     bool
	feedback  string
	clearAt   time.Time
	readyAt   time.Time
	startedAt time.Time
}

// Runner drives one attempt through its questions.
// It is not safe for concurrent use; callers serialize access.
type Runner struct {
	clock Clock
	rng   *rand.Rand

	quizID    string
	questions []models.Question
	index     int
	phase     Phase
	current   questionState

	correct   int
	wrong     int
	seen      []string
	seenSet   map[string]bool
	startedAt time.Time
	endedAt   time.Time
	mood      models.Mood
}

// NewRunner creates a runner in the loading phase
func NewRunner(clock Clock, rng *rand.Rand) *Runner {
	if clock == nil {
		clock = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Runner{
		clock:   clock,
		rng:     rng,
		phase:   PhaseLoading,
		seenSet: make(map[string]bool),
	}
}

// Load shuffles questions into the presented order and starts answering.
// previous is the question id order of the same user's last play of this
// quiz; a shuffle that reproduces it is rotated by one.
func (r *Runner) Load(quizID string, questions []models.Question, previous []int64) error {
	if r.phase != PhaseLoading {
		return ErrAlreadyLoaded
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: %s", ErrNoQuestions, quizID)
	}

	order := make([]models.Question, len(questions))
	copy(order, questions)
	r.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	if len(order) >= 2 && sameOrder(order, previous) {
		order = append(order[1:], order[0])
	}

	now := r.clock()
	r.quizID = quizID
	r.questions = order
	r.phase = PhaseAnswering
	r.startedAt = now
	r.current = questionState{startedAt: now}
	return nil
}

func sameOrder(questions []models.Question, ids []int64) bool {
	if len(questions) != len(ids) {
		return false
	}
	for i, q := range questions {
		if q.ID != ids[i] {
			return false
		}
	}
	return true
}

// settle applies scheduled transitions whose deadline has passed
func (r *Runner) settle(now time.Time) {
	q := &r.current
	if !q.clearAt.IsZero() && !now.Before(q.clearAt) {
		q.selected = ""
		q.feedback = ""
		q.clearAt = time.Time{}
	}
	if !q.readyAt.IsZero() && !now.Before(q.readyAt) {
		q.ready = true
		q.readyAt = time.Time{}
	}
}

// Submit answers the current question with option
func (r *Runner) Submit(option string) (Feedback, error) {
	now := r.clock()
	r.settle(now)

	if r.phase != PhaseAnswering {
		return Feedback{}, ErrNotAnswering
	}

	q := &r.current
	question := r.questions[r.index]

	// Locked, or a wrong selection is still on screen
	if q.locked || q.selected != "" {
		return Feedback{Ignored: true, Locked: q.locked}, nil
	}
	if !hasOption(question, option) {
		return Feedback{}, ErrUnknownOption
	}

	answer := &Answer{
		Prompt:     question.Prompt,
		Correct:    option == question.Answer,
		RetryCount: q.attempts,
		Elapsed:    now.Sub(q.startedAt),
	}
	r.markSeen(question.Prompt)
	q.selected = option

	fb := Feedback{Correct: answer.Correct, Answer: answer}

	if answer.Correct {
		r.correct++
		q.locked = true
		q.feedback = affirmations[r.rng.Intn(len(affirmations))]
		q.readyAt = now.Add(CorrectReadyWait)
		fb.Message = q.feedback
		fb.Locked = true
		return fb, nil
	}

	r.wrong++
	q.attempts++

	switch {
	case q.attempts >= MaxWrongAttempts:
		q.revealed = true
		q.locked = true
		q.feedback = fmt.Sprintf("The correct answer is %s", question.Answer)
		q.readyAt = now.Add(RevealReadyWait)
		fb.Revealed = question.Answer
		fb.Locked = true
	case q.attempts == 2:
		q.hintShown = question.Hint != ""
		q.feedback = tryAgainMessage
		q.clearAt = now.Add(HintClearDelay)
		if q.hintShown {
			fb.Hint = question.Hint
		}
	default:
		q.feedback = tryAgainMessage
		q.clearAt = now.Add(RetryClearDelay)
	}
	fb.Message = q.feedback
	return fb, nil
}

func hasOption(q models.Question, option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (r *Runner) markSeen(prompt string) {
	if r.seenSet[prompt] {
		return
	}
	r.seenSet[prompt] = true
	r.seen = append(r.seen, prompt)
}

// Advance moves to the next question, or to mood selection after the last one
func (r *Runner) Advance() error {
	now := r.clock()
	r.settle(now)

	if r.phase != PhaseAnswering {
		return ErrNotAnswering
	}
	if !r.current.ready {
		return ErrNotReady
	}

	if r.index == len(r.questions)-1 {
		r.phase = PhaseMoodSelection
		r.current = questionState{}
		return nil
	}

	r.index++
	r.current = questionState{startedAt: now}
	return nil
}

// SelectMood completes the attempt with the learner's mood
func (r *Runner) SelectMood(mood models.Mood) (Summary, error) {
	if r.phase != PhaseMoodSelection {
		return Summary{}, ErrNotSelecting
	}
	if !mood.Valid() {
		return Summary{}, ErrInvalidMood
	}
	r.mood = mood
	r.phase = PhaseComplete
	r.endedAt = r.clock()
	return r.Summary(), nil
}

// Counters returns the running totals for the session record
func (r *Runner) Counters() models.SessionCounters {
	seen := make([]string, len(r.seen))
	copy(seen, r.seen)
	return models.SessionCounters{
		CorrectCount: r.correct,
		WrongCount:   r.wrong,
		WordsSeen:    seen,
	}
}

// Phase returns the quiz-level state after applying due transitions
func (r *Runner) Phase() Phase {
	r.settle(r.clock())
	return r.phase
}

// QuizID returns the quiz being played
func (r *Runner) QuizID() string {
	return r.quizID
}

// Order returns the presented question ids
func (r *Runner) Order() []int64 {
	ids := make([]int64, len(r.questions))
	for i, q := range r.questions {
		ids[i] = q.ID
	}
	return ids
}

// Questions returns the presented questions in order
func (r *Runner) Questions() []models.Question {
	out := make([]models.Question, len(r.questions))
	copy(out, r.questions)
	return out
}

func (r *Runner) questionState() QuestionState {
	q := r.current
	switch {
	case q.locked && q.revealed:
		return StateLockedRevealed
	case q.locked:
		return StateLockedCorrect
	case q.attempts >= 2:
		return StateHintShown
	case q.attempts == 1:
		return StateRetrying
	default:
		return StateUnanswered
	}
}

// Summary is shown when the attempt ends
type Summary struct {
	QuizID    string      `json:"quiz_id"`
	Category  string      `json:"category,omitempty"`
	Type      string      `json:"type,omitempty"`
	Score     int         `json:"score"`
	Total     int         `json:"total"`
	Correct   int         `json:"correct"`
	Wrong     int         `json:"wrong"`
	Accuracy  int         `json:"accuracy"`
	WordsSeen []string    `json:"words_seen"`
	Mood      models.Mood `json:"mood,omitempty"`
	MoodEmoji string      `json:"mood_emoji,omitempty"`
	Duration  int         `json:"duration_seconds"`
}

// StartedAt is when the questions were loaded
func (r *Runner) StartedAt() time.Time {
	return r.startedAt
}

// Summary returns the totals so far
func (r *Runner) Summary() Summary {
	s := Summary{
		QuizID:    r.quizID,
		Score:     r.correct,
		Total:     len(r.questions),
		Correct:   r.correct,
		Wrong:     r.wrong,
		Accuracy:  Accuracy(r.correct, r.wrong),
		WordsSeen: r.Counters().WordsSeen,
	}
	if len(r.questions) > 0 {
		s.Category = r.questions[0].Category
		s.Type = string(r.questions[0].Kind)
	}
	end := r.endedAt
	if end.IsZero() {
		end = r.clock()
	}
	s.Duration = int(end.Sub(r.startedAt).Seconds())
	if r.mood != "" {
		s.Mood = r.mood
		s.MoodEmoji = r.mood.Emoji()
	}
	return s
}

// Accuracy is the rounded percentage of correct answers, 0 when there are none
func Accuracy(correct, wrong int) int {
	total := correct + wrong
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}
