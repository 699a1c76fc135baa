package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardquiz/internal/messaging"
	"cardquiz/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memoryStore is an in-memory SessionStore
type memoryStore struct {
	mu           sync.Mutex
	nextID       int64
	sessions     map[int64]*models.QuizSession
	interactions []models.Interaction
	closeWrites  int
	failCreate   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[int64]*models.QuizSession)}
}

func (m *memoryStore) CreateSession(_ context.Context, userID int64, quizID string, startedAt time.Time) (*models.QuizSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return nil, fmt.Errorf("store unavailable")
	}
	m.nextID++
	s := &models.QuizSession{ID: m.nextID, UserID: userID, QuizID: quizID, StartedAt: startedAt}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memoryStore) AddInteraction(_ context.Context, in *models.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, *in)
	return nil
}

func (m *memoryStore) CloseSession(_ context.Context, id int64, endedAt time.Time, durationSeconds int, counters models.SessionCounters, mood string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.EndedAt != nil {
		return false, nil
	}
	m.closeWrites++
	s.EndedAt = &endedAt
	s.DurationSeconds = durationSeconds
	s.CorrectCount = counters.CorrectCount
	s.WrongCount = counters.WrongCount
	s.WordsSeen = counters.WordsSeen
	s.Mood = mood
	return true, nil
}

func (m *memoryStore) DiscardOpenSession(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.EndedAt == nil {
		delete(m.sessions, id)
	}
	return nil
}

func (m *memoryStore) session(id int64) *models.QuizSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *memoryStore) openCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.EndedAt == nil {
			n++
		}
	}
	return n
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.SessionClosedEvent
}

func (p *recordingPublisher) PublishSessionClosed(_ context.Context, ev messaging.SessionClosedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// staticQuestions serves a fixed catalog
type staticQuestions map[string][]models.Question

func (s staticQuestions) ActiveQuestions(_ context.Context, quizID string, level int) ([]models.Question, error) {
	var out []models.Question
	for _, q := range s[quizID] {
		if level <= 0 || q.Level == level {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, ErrQuizNotFound
	}
	return out, nil
}

func testCatalog() staticQuestions {
	return staticQuestions{
		"quiz1-easy": {
			{ID: 1, QuizID: "quiz1-easy", Prompt: "apple", Kind: models.QuestionImage, MediaRef: "apple", OptionKind: models.OptionText, Options: []string{"Fruit", "Vehicle"}, Answer: "Fruit", Hint: "You can eat it", Level: 1, Active: true},
			{ID: 2, QuizID: "quiz1-easy", Prompt: "bus", Kind: models.QuestionImage, MediaRef: "bus", OptionKind: models.OptionText, Options: []string{"Fruit", "Vehicle"}, Answer: "Vehicle", Level: 1, Active: true},
		},
	}
}

func answerFor(catalog staticQuestions, quizID, prompt string) (right, wrong string) {
	for _, q := range catalog[quizID] {
		if q.Prompt != prompt {
			continue
		}
		for _, o := range q.Options {
			if o != q.Answer {
				wrong = o
			}
		}
		return q.Answer, wrong
	}
	return "", ""
}

type prefixMedia string

func (p prefixMedia) URL(_ context.Context, ref string) string {
	return string(p) + ref + ".png"
}
