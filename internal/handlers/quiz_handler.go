package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"cardquiz/internal/history"
	"cardquiz/internal/models"
	"cardquiz/internal/quiz"
	"cardquiz/internal/service"
)

// QuizCatalog lists the playable quizzes
type QuizCatalog interface {
	ListQuizzes(ctx context.Context) ([]models.QuizSummary, error)
}

// QuizHandler serves the catalog and attempt endpoints. Guests may play;
// only signed-in attempts are recorded.
type QuizHandler struct {
	catalog  QuizCatalog
	attempts *service.QuizService
	history  history.Store
}

// NewQuizHandler creates a quiz handler. historyStore may be nil.
func NewQuizHandler(catalog QuizCatalog, attempts *service.QuizService, historyStore history.Store) *QuizHandler {
	return &QuizHandler{catalog: catalog, attempts: attempts, history: historyStore}
}

// ListQuizzes returns the quiz ids with their categories and sizes
func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load quizzes", "", err)
		return
	}
	if quizzes == nil {
		quizzes = []models.QuizSummary{}
	}
	respondWithJSON(w, http.StatusOK, quizzes)
}

// StartAttempt loads a quiz and opens an attempt
func (h *QuizHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("quizId")

	level := 0
	if raw := r.URL.Query().Get("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid level", "", nil)
			return
		}
		level = n
	}

	view, err := h.attempts.StartAttempt(r.Context(), userID(r), quizID, level)
	if err != nil {
		h.attemptError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

// GetAttempt returns the current attempt snapshot
func (h *QuizHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := h.attempts.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		h.attemptError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

type answerRequest struct {
	Option string `json:"option"`
}

// Answer submits an option for the current question
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Option == "" {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	res, err := h.attempts.Answer(r.Context(), userID(r), r.PathValue("id"), req.Option)
	if err != nil {
		h.attemptError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// Advance moves to the next question or to mood selection
func (h *QuizHandler) Advance(w http.ResponseWriter, r *http.Request) {
	view, err := h.attempts.Advance(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		h.attemptError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

type moodRequest struct {
	Mood models.Mood `json:"mood"`
}

// SelectMood finishes the attempt and returns its summary
func (h *QuizHandler) SelectMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	uid := userID(r)
	summary, err := h.attempts.SelectMood(r.Context(), uid, r.PathValue("id"), req.Mood)
	if err != nil {
		h.attemptError(w, err)
		return
	}

	if uid != 0 && h.history != nil {
		if err := history.Append(r.Context(), h.history, uid, historyItem(summary, time.Now())); err != nil {
			log.Printf("failed to append history for user %d: %v", uid, err)
		}
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// Teardown abandons the attempt
func (h *QuizHandler) Teardown(w http.ResponseWriter, r *http.Request) {
	if err := h.attempts.Teardown(r.Context(), userID(r), r.PathValue("id")); err != nil {
		h.attemptError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) attemptError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		respondWithError(w, http.StatusNotFound, "Quiz not found or has no questions", "", nil)
	case errors.Is(err, service.ErrAttemptNotFound):
		respondWithError(w, http.StatusNotFound, ErrAttemptGone, "", nil)
	case errors.Is(err, quiz.ErrUnknownOption), errors.Is(err, quiz.ErrInvalidMood):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, quiz.ErrNotReady), errors.Is(err, quiz.ErrNotAnswering), errors.Is(err, quiz.ErrNotSelecting):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Attempt request failed", err)
	}
}

func historyItem(s *quiz.Summary, now time.Time) models.HistoryItem {
	return models.HistoryItem{
		QuizID:      s.QuizID,
		Category:    s.Category,
		Type:        s.Type,
		Score:       s.Score,
		Total:       s.Total,
		Accuracy:    float64(s.Accuracy),
		TimeSpent:   formatDuration(s.Duration),
		LastAttempt: now,
	}
}

// formatDuration renders seconds as "1m 20s"
func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
