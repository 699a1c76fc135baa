package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cardquiz/internal/models"
	"cardquiz/internal/quiz"

	"github.com/google/uuid"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// QuestionSource loads the playable questions of a quiz
type QuestionSource interface {
	ActiveQuestions(ctx context.Context, quizID string, level int) ([]models.Question, error)
}

// MediaResolver turns a logical media reference into a client URL
type MediaResolver interface {
	URL(ctx context.Context, ref string) string
}

// Attempt is one server-held play-through of a quiz
type Attempt struct {
	ID     string
	UserID int64
	QuizID string

	mu       sync.Mutex
	runner   *quiz.Runner
	session  *RecordedSession
	done     bool
	lastSeen atomic.Int64
}

func (a *Attempt) touch(now time.Time) {
	a.lastSeen.Store(now.UnixNano())
}

func (a *Attempt) idleSince() time.Time {
	return time.Unix(0, a.lastSeen.Load())
}

// AttemptView is the JSON snapshot of an attempt
type AttemptView struct {
	AttemptID string `json:"attempt_id"`
	Guest     bool   `json:"guest"`
	quiz.View
}

// AnswerResult is returned by Answer
type AnswerResult struct {
	Feedback quiz.Feedback `json:"feedback"`
	Attempt  AttemptView   `json:"attempt"`
}

type orderKey struct {
	userID int64
	quizID string
}

// QuizService keeps the live attempts and connects each runner to the
// session recorder.
type QuizService struct {
	questions   QuestionSource
	recorder    *SessionRecorder
	media       MediaResolver
	idleTimeout time.Duration

	mu        sync.RWMutex
	attempts  map[string]*Attempt
	lastOrder map[orderKey][]int64

	now    quiz.Clock
	rngMu  sync.Mutex
	rng    *rand.Rand
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewQuizService creates the attempt registry. media may be nil.
func NewQuizService(questions QuestionSource, recorder *SessionRecorder, media MediaResolver, idleTimeout time.Duration) *QuizService {
	return &QuizService{
		questions:   questions,
		recorder:    recorder,
		media:       media,
		idleTimeout: idleTimeout,
		attempts:    make(map[string]*Attempt),
		lastOrder:   make(map[orderKey][]int64),
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh:      make(chan struct{}),
	}
}

func (s *QuizService) newRunner() *quiz.Runner {
	s.rngMu.Lock()
	seed := s.rng.Int63()
	s.rngMu.Unlock()
	return quiz.NewRunner(s.now, rand.New(rand.NewSource(seed)))
}

// StartAttempt loads a quiz and opens its session. A signed-in user
// replaying a quiz first tears down their previous attempt on it.
func (s *QuizService) StartAttempt(ctx context.Context, userID int64, quizID string, level int) (*AttemptView, error) {
	questions, err := s.questions.ActiveQuestions(ctx, quizID, level)
	if err != nil {
		return nil, err
	}

	if userID != 0 {
		for _, prev := range s.userAttempts(userID, quizID) {
			s.teardown(ctx, prev, "replay")
		}
	}

	key := orderKey{userID: userID, quizID: quizID}
	runner := s.newRunner()

	s.mu.RLock()
	previous := s.lastOrder[key]
	s.mu.RUnlock()

	if err := runner.Load(quizID, questions, previous); err != nil {
		if errors.Is(err, quiz.ErrNoQuestions) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	a := &Attempt{
		ID:     uuid.New().String(),
		UserID: userID,
		QuizID: quizID,
		runner: runner,
	}
	a.session = s.recorder.Open(ctx, userID, quizID)
	a.touch(s.now())

	s.mu.Lock()
	s.attempts[a.ID] = a
	if userID != 0 {
		s.lastOrder[key] = runner.Order()
	}
	s.mu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	v := s.view(ctx, a)
	return &v, nil
}

// userAttempts returns the live attempts of a user, optionally for one quiz
func (s *QuizService) userAttempts(userID int64, quizID string) []*Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Attempt
	for _, a := range s.attempts {
		if a.UserID != userID {
			continue
		}
		if quizID != "" && a.QuizID != quizID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// acquire looks up an attempt for userID and locks it. Signed-in attempts
// are only visible to their owner.
func (s *QuizService) acquire(userID int64, id string) (*Attempt, error) {
	s.mu.RLock()
	a, ok := s.attempts[id]
	s.mu.RUnlock()
	if !ok || a.UserID != userID {
		return nil, ErrAttemptNotFound
	}

	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return nil, ErrAttemptNotFound
	}
	a.touch(s.now())
	return a, nil
}

// Get returns the current snapshot of an attempt
func (s *QuizService) Get(ctx context.Context, userID int64, id string) (*AttemptView, error) {
	a, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer a.mu.Unlock()

	v := s.view(ctx, a)
	return &v, nil
}

// Answer submits an option for the current question and records the
// interaction when the submission was not ignored.
func (s *QuizService) Answer(ctx context.Context, userID int64, id, option string) (*AnswerResult, error) {
	a, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer a.mu.Unlock()

	fb, err := a.runner.Submit(option)
	if err != nil {
		return nil, err
	}
	if fb.Answer != nil {
		s.recorder.LogInteraction(ctx, a.session, fb.Answer.Prompt, fb.Answer.Correct, fb.Answer.RetryCount, fb.Answer.Elapsed)
	}

	return &AnswerResult{Feedback: fb, Attempt: s.view(ctx, a)}, nil
}

// Advance moves the attempt to its next question
func (s *QuizService) Advance(ctx context.Context, userID int64, id string) (*AttemptView, error) {
	a, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer a.mu.Unlock()

	if err := a.runner.Advance(); err != nil {
		return nil, err
	}
	v := s.view(ctx, a)
	return &v, nil
}

// SelectMood completes the attempt and closes its session
func (s *QuizService) SelectMood(ctx context.Context, userID int64, id string, mood models.Mood) (*quiz.Summary, error) {
	a, err := s.acquire(userID, id)
	if err != nil {
		return nil, err
	}
	defer a.mu.Unlock()

	summary, err := a.runner.SelectMood(mood)
	if err != nil {
		return nil, err
	}
	s.recorder.Close(ctx, a.session, a.runner.Counters(), mood)
	return &summary, nil
}

// Teardown abandons an attempt. Its session is auto-closed.
func (s *QuizService) Teardown(ctx context.Context, userID int64, id string) error {
	s.mu.RLock()
	a, ok := s.attempts[id]
	s.mu.RUnlock()
	if !ok || a.UserID != userID {
		return ErrAttemptNotFound
	}
	s.teardown(ctx, a, "closed by client")
	return nil
}

// TeardownUser abandons every attempt of a user
func (s *QuizService) TeardownUser(ctx context.Context, userID int64) int {
	attempts := s.userAttempts(userID, "")
	for _, a := range attempts {
		s.teardown(ctx, a, "signed out")
	}
	return len(attempts)
}

func (s *QuizService) teardown(ctx context.Context, a *Attempt, reason string) {
	s.mu.Lock()
	delete(s.attempts, a.ID)
	s.mu.Unlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return
	}
	a.done = true

	if a.session != nil && s.recorder.AutoClose(ctx, a.session, a.runner.Counters()) {
		log.Printf("attempt %s on quiz %s torn down (%s)", a.ID, a.QuizID, reason)
	}
}

// SweepIdle tears down attempts untouched for longer than the idle timeout
func (s *QuizService) SweepIdle(ctx context.Context) int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.RLock()
	var idle []*Attempt
	for _, a := range s.attempts {
		if a.idleSince().Before(cutoff) {
			idle = append(idle, a)
		}
	}
	s.mu.RUnlock()

	for _, a := range idle {
		s.teardown(ctx, a, "idle")
	}
	return len(idle)
}

// Len returns the number of live attempts
func (s *QuizService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

// WatchAuth tears down a user's attempts whenever they sign out
func (s *QuizService) WatchAuth(auth *AuthService) (unsubscribe func()) {
	return auth.Subscribe(func(ev AuthEvent) {
		if ev.Type != EventSignedOut || ev.UserID == 0 {
			return
		}
		if n := s.TeardownUser(context.Background(), ev.UserID); n > 0 {
			log.Printf("tore down %d attempt(s) for signed out user %d", n, ev.UserID)
		}
	})
}

// Start runs the idle sweeper until ctx is done or Stop is called
func (s *QuizService) Start(ctx context.Context, interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.SweepIdle(context.Background()); n > 0 {
					log.Printf("swept %d idle attempt(s)", n)
				}
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the sweeper and tears down every live attempt
func (s *QuizService) Stop(ctx context.Context) {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()

	s.mu.RLock()
	all := make([]*Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		all = append(all, a)
	}
	s.mu.RUnlock()

	for _, a := range all {
		s.teardown(ctx, a, "shutdown")
	}
}

// view builds the snapshot with media links. Caller holds a.mu.
func (s *QuizService) view(ctx context.Context, a *Attempt) AttemptView {
	v := a.runner.View()
	if q := v.Question; q != nil && s.media != nil {
		if q.MediaRef != "" {
			q.MediaURL = s.media.URL(ctx, q.MediaRef)
		}
		if q.OptionKind == models.OptionImage {
			q.OptionURLs = make(map[string]string, len(q.Options))
			for _, opt := range q.Options {
				q.OptionURLs[opt] = s.media.URL(ctx, opt)
			}
		}
	}
	return AttemptView{AttemptID: a.ID, Guest: a.UserID == 0, View: v}
}
