package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cardquiz/internal/history"
	"cardquiz/internal/models"
	"cardquiz/internal/quiz"
	"cardquiz/internal/service"
)

type quizFixture struct {
	mux      *http.ServeMux
	sessions *stubSessions
	history  *history.FileStore
}

func newQuizFixture(t *testing.T, catalog fakeCatalog) *quizFixture {
	t.Helper()

	sessions := &stubSessions{}
	attempts := service.NewQuizService(catalog, service.NewSessionRecorder(sessions, nil), nil, time.Hour)
	t.Cleanup(func() { attempts.Stop(context.Background()) })

	store, err := history.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create history store: %v", err)
	}

	h := NewQuizHandler(catalog, attempts, store)
	mw := NewMiddleware(testAuthenticator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quizzes", h.ListQuizzes)
	mux.HandleFunc("POST /api/quizzes/{quizId}/attempts", mw.OptionalAuth(h.StartAttempt))
	mux.HandleFunc("GET /api/attempts/{id}", mw.OptionalAuth(h.GetAttempt))
	mux.HandleFunc("POST /api/attempts/{id}/answer", mw.OptionalAuth(h.Answer))
	mux.HandleFunc("POST /api/attempts/{id}/next", mw.OptionalAuth(h.Advance))
	mux.HandleFunc("POST /api/attempts/{id}/mood", mw.OptionalAuth(h.SelectMood))
	mux.HandleFunc("DELETE /api/attempts/{id}", mw.OptionalAuth(h.Teardown))

	return &quizFixture{mux: mux, sessions: sessions, history: store}
}

func (f *quizFixture) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		withBearer(req, token)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

type attemptBody struct {
	AttemptID string                   `json:"attempt_id"`
	Guest     bool                     `json:"guest"`
	Phase     quiz.Phase               `json:"phase"`
	Total     int                      `json:"total"`
	Ready     bool                     `json:"ready"`
	Question  *struct{ Prompt string } `json:"question"`
}

func (f *quizFixture) start(t *testing.T, token string) attemptBody {
	t.Helper()
	rec := f.do(jsonRequest(t, http.MethodPost, "/api/quizzes/quiz1-easy/attempts", nil), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[attemptBody](t, rec)
}

func TestListQuizzes(t *testing.T) {
	f := newQuizFixture(t, singleQuestionCatalog())
	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/quizzes", nil), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	quizzes := decodeBody[[]models.QuizSummary](t, rec)
	if len(quizzes) != 1 || quizzes[0].QuizID != "quiz1-easy" {
		t.Fatalf("unexpected quiz list: %+v", quizzes)
	}
}

func TestStartAttempt(t *testing.T) {
	f := newQuizFixture(t, singleQuestionCatalog())

	tests := []struct {
		name       string
		target     string
		token      string
		wantStatus int
	}{
		{name: "guest", target: "/api/quizzes/quiz1-easy/attempts", wantStatus: http.StatusCreated},
		{name: "signed in", target: "/api/quizzes/quiz1-easy/attempts", token: "alice-token", wantStatus: http.StatusCreated},
		{name: "level filter", target: "/api/quizzes/quiz1-easy/attempts?level=1", wantStatus: http.StatusCreated},
		{name: "empty level", target: "/api/quizzes/quiz1-easy/attempts?level=3", wantStatus: http.StatusNotFound},
		{name: "bad level", target: "/api/quizzes/quiz1-easy/attempts?level=hard", wantStatus: http.StatusBadRequest},
		{name: "unknown quiz", target: "/api/quizzes/nope/attempts", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodPost, tt.target, nil), tt.token)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if rec.Code != http.StatusCreated {
				return
			}
			body := decodeBody[attemptBody](t, rec)
			if body.AttemptID == "" || body.Phase != quiz.PhaseAnswering || body.Question == nil {
				t.Fatalf("unexpected attempt: %+v", body)
			}
			if body.Guest != (tt.token == "") {
				t.Fatalf("expected guest=%v", tt.token == "")
			}
		})
	}
}

func TestAnswerFlowStatuses(t *testing.T) {
	f := newQuizFixture(t, singleQuestionCatalog())
	a := f.start(t, "alice-token")
	base := "/api/attempts/" + a.AttemptID

	rec := f.do(jsonRequest(t, http.MethodPost, base+"/answer", answerRequest{Option: "Banana"}), "alice-token")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown option: expected 400, got %d", rec.Code)
	}

	rec = f.do(jsonRequest(t, http.MethodPost, base+"/answer", answerRequest{}), "alice-token")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty option: expected 400, got %d", rec.Code)
	}

	rec = f.do(jsonRequest(t, http.MethodPost, base+"/answer", answerRequest{Option: "Fruit"}), "alice-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeBody[struct {
		Feedback quiz.Feedback `json:"feedback"`
	}](t, rec)
	if !res.Feedback.Correct || !res.Feedback.Locked {
		t.Fatalf("expected a locked correct answer, got %+v", res.Feedback)
	}

	rec = f.do(jsonRequest(t, http.MethodPost, base+"/next", nil), "alice-token")
	if rec.Code != http.StatusConflict {
		t.Fatalf("advance before ready: expected 409, got %d", rec.Code)
	}

	rec = f.do(jsonRequest(t, http.MethodPost, base+"/mood", moodRequest{Mood: "happy"}), "alice-token")
	if rec.Code != http.StatusConflict {
		t.Fatalf("mood while answering: expected 409, got %d", rec.Code)
	}
}

func TestAttemptOwnership(t *testing.T) {
	f := newQuizFixture(t, singleQuestionCatalog())
	a := f.start(t, "alice-token")

	for _, token := range []string{"bob-token", ""} {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/attempts/"+a.AttemptID, nil), token)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("token %q: expected 404, got %d", token, rec.Code)
		}
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/attempts/"+a.AttemptID, nil), "alice-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner: expected 200, got %d", rec.Code)
	}
}

func TestTeardownAttempt(t *testing.T) {
	f := newQuizFixture(t, singleQuestionCatalog())
	a := f.start(t, "alice-token")
	target := "/api/attempts/" + a.AttemptID

	rec := f.do(jsonRequest(t, http.MethodPost, target+"/answer", answerRequest{Option: "Vehicle"}), "alice-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = f.do(httptest.NewRequest(http.MethodDelete, target, nil), "alice-token")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if f.sessions.closed != 1 {
		t.Fatalf("expected the answered session to be auto-closed, got %d closes", f.sessions.closed)
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, target, nil), "alice-token")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after teardown, got %d", rec.Code)
	}
}

func TestCompletedAttemptAppendsHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the post-answer delay")
	}

	f := newQuizFixture(t, singleQuestionCatalog())
	a := f.start(t, "alice-token")
	base := "/api/attempts/" + a.AttemptID

	if rec := f.do(jsonRequest(t, http.MethodPost, base+"/answer", answerRequest{Option: "Fruit"}), "alice-token"); rec.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d", rec.Code)
	}

	time.Sleep(quiz.CorrectReadyWait + 100*time.Millisecond)

	rec := f.do(jsonRequest(t, http.MethodPost, base+"/next", nil), "alice-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody[attemptBody](t, rec); body.Phase != quiz.PhaseMoodSelection {
		t.Fatalf("expected mood selection, got %s", body.Phase)
	}

	rec = f.do(jsonRequest(t, http.MethodPost, base+"/mood", moodRequest{Mood: "grumpy"}), "alice-token")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid mood: expected 400, got %d", rec.Code)
	}

	rec = f.do(jsonRequest(t, http.MethodPost, base+"/mood", moodRequest{Mood: "happy"}), "alice-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("mood: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[quiz.Summary](t, rec)
	if summary.Score != 1 || summary.Total != 1 || summary.Accuracy != 100 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	items, err := f.history.Load(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one history item, got %d", len(items))
	}
	if items[0].QuizID != "quiz1-easy" || items[0].Category != "Classification" || items[0].Accuracy != 100 {
		t.Fatalf("unexpected history item: %+v", items[0])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m 0s"},
		{80, "1m 20s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
