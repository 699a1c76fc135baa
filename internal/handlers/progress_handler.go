package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"cardquiz/internal/history"
	"cardquiz/internal/models"
	"cardquiz/internal/progress"
)

// SessionHistory reads a user's recorded sessions
type SessionHistory interface {
	SessionsForUser(ctx context.Context, userID int64, since time.Time) ([]models.QuizSession, error)
	InteractionsForUser(ctx context.Context, userID int64, since time.Time) ([]models.Interaction, error)
}

const (
	maxWindowDays = 90
	// streaks are looked up this far back
	streakLookback = 366 * 24 * time.Hour
)

// Progress sources
const (
	SourceSessions  = "sessions"
	SourceHistory   = "history"
	SourceSynthetic = "synthetic"
)

// ProgressHandler serves the progress and offline history endpoints
type ProgressHandler struct {
	sessions SessionHistory
	history  history.Store
	now      func() time.Time
}

func NewProgressHandler(sessions SessionHistory, historyStore history.Store) *ProgressHandler {
	return &ProgressHandler{sessions: sessions, history: historyStore, now: time.Now}
}

type progressResponse struct {
	Source  string                   `json:"source"`
	Metrics *progress.Metrics        `json:"metrics,omitempty"`
	History *progress.HistorySummary `json:"history,omitempty"`
}

// GetProgress returns metrics from recorded sessions, falling back to the
// offline history and then to labelled sample data.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	window := progress.DefaultWindowDays
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxWindowDays {
			respondWithError(w, http.StatusBadRequest, "window must be between 1 and 90 days", "", nil)
			return
		}
		window = n
	}

	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Unknown time zone", "", nil)
			return
		}
		loc = l
	}
	now := h.now().In(loc)

	ctx := r.Context()
	sessions, err := h.sessions.SessionsForUser(ctx, user.ID, now.Add(-streakLookback))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load progress", "", err)
		return
	}
	windowStart := now.AddDate(0, 0, -window)
	interactions, err := h.sessions.InteractionsForUser(ctx, user.ID, windowStart)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load progress", "", err)
		return
	}

	metrics := progress.ComputeMetrics(sessions, interactions, now, window)
	if metrics.HasData() || progress.HasHistory(sessions) {
		respondWithJSON(w, http.StatusOK, progressResponse{Source: SourceSessions, Metrics: &metrics})
		return
	}

	if items := h.loadHistory(ctx, user.ID); len(items) > 0 {
		summary := progress.SummarizeHistory(items, now)
		respondWithJSON(w, http.StatusOK, progressResponse{Source: SourceHistory, History: &summary})
		return
	}

	synthetic := progress.WithFallback(metrics, now)
	respondWithJSON(w, http.StatusOK, progressResponse{Source: SourceSynthetic, Metrics: &synthetic})
}

// loadHistory treats read failures as no history
func (h *ProgressHandler) loadHistory(ctx context.Context, userID int64) []models.HistoryItem {
	if h.history == nil {
		return nil
	}
	items, err := h.history.Load(ctx, userID)
	if err != nil {
		log.Printf("failed to load history for user %d: %v", userID, err)
		return nil
	}
	return items
}

// GetHistory returns the offline history list
func (h *ProgressHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	items := h.loadHistory(r.Context(), user.ID)
	if items == nil {
		items = []models.HistoryItem{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// GetHistorySummary returns the analytics over the offline history
func (h *ProgressHandler) GetHistorySummary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, progress.SummarizeHistory(h.loadHistory(r.Context(), user.ID), h.now()))
}

// PutHistory replaces the offline history list
func (h *ProgressHandler) PutHistory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	if h.history == nil {
		respondWithError(w, http.StatusServiceUnavailable, "History storage is not configured", "", nil)
		return
	}

	var items []models.HistoryItem
	if err := decodeJSON(w, r, &items); err != nil {
		respondWithError(w, http.StatusBadRequest, "History must be a JSON array", "", nil)
		return
	}

	if err := h.history.Save(r.Context(), user.ID, items); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save history", "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
