package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cardquiz/internal/models"
	"cardquiz/internal/service"
)

// fakeAuthenticator resolves tokens from a fixed table
type fakeAuthenticator struct {
	users map[string]*models.User
	err   error
}

func (f fakeAuthenticator) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrSessionNotFound
}

var (
	alice = &models.User{ID: 7, Email: "alice@example.com", FullName: "Alice Smith"}
	bob   = &models.User{ID: 8, Email: "bob@example.com", FullName: "Bob Jones"}
)

func testAuthenticator() fakeAuthenticator {
	return fakeAuthenticator{users: map[string]*models.User{"alice-token": alice, "bob-token": bob}}
}

// stubSessions is a SessionStore that accepts every write
type stubSessions struct {
	mu     sync.Mutex
	nextID int64
	closed int
}

func (s *stubSessions) CreateSession(_ context.Context, userID int64, quizID string, startedAt time.Time) (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return &models.QuizSession{ID: s.nextID, UserID: userID, QuizID: quizID, StartedAt: startedAt}, nil
}

func (s *stubSessions) AddInteraction(context.Context, *models.Interaction) error { return nil }

func (s *stubSessions) CloseSession(context.Context, int64, time.Time, int, models.SessionCounters, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return true, nil
}

func (s *stubSessions) DiscardOpenSession(context.Context, int64) error { return nil }

// fakeCatalog serves a fixed set of questions keyed by quiz id
type fakeCatalog map[string][]models.Question

func (c fakeCatalog) ActiveQuestions(_ context.Context, quizID string, level int) ([]models.Question, error) {
	var out []models.Question
	for _, q := range c[quizID] {
		if level <= 0 || q.Level == level {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, service.ErrQuizNotFound
	}
	return out, nil
}

func (c fakeCatalog) ListQuizzes(context.Context) ([]models.QuizSummary, error) {
	var out []models.QuizSummary
	for id, qs := range c {
		out = append(out, models.QuizSummary{QuizID: id, Levels: []int{1}, QuestionCount: len(qs)})
	}
	return out, nil
}

func singleQuestionCatalog() fakeCatalog {
	return fakeCatalog{
		"quiz1-easy": {
			{ID: 1, QuizID: "quiz1-easy", Prompt: "apple", Kind: models.QuestionImage, MediaRef: "apple", OptionKind: models.OptionText, Options: []string{"Fruit", "Vehicle"}, Answer: "Fruit", Hint: "You can eat it", Category: "Classification", Level: 1, Active: true},
		},
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}
