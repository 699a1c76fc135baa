package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"cardquiz/internal/models"
	"cardquiz/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := setupTestDB(t)

	user, err := repository.NewUserRepository(source).CreateUser(ctx, "learner@example.com", "hash", models.Profile{FirstName: "Lee", Phone: "+15550100"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if _, err := NewCatalogService(source, nil).SeedFromDir(ctx, "../../data/quizzes"); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	sessions := repository.NewSessionRepository(source)
	started := time.Date(2024, 5, 9, 10, 0, 0, 0, time.UTC)
	rs, err := sessions.CreateSession(ctx, user.ID, "quiz1-easy", started)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := sessions.AddInteraction(ctx, &models.Interaction{SessionID: rs.ID, Prompt: "apple", Correct: true, TimeTakenSeconds: 2.5}); err != nil {
		t.Fatalf("failed to add interaction: %v", err)
	}
	counters := models.SessionCounters{CorrectCount: 1, WordsSeen: []string{"apple"}}
	if _, err := sessions.CloseSession(ctx, rs.ID, started.Add(time.Minute), 60, counters, "happy"); err != nil {
		t.Fatalf("failed to close session: %v", err)
	}

	var buf bytes.Buffer
	exported, err := NewBackupService(source).Export(ctx, &buf)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(exported.Users) != 1 || len(exported.Sessions) != 1 || len(exported.Questions) == 0 {
		t.Fatalf("unexpected export: %d users, %d sessions, %d questions", len(exported.Users), len(exported.Sessions), len(exported.Questions))
	}
	if got := len(exported.Sessions[0].Interactions); got != 1 {
		t.Fatalf("expected 1 interaction, got %d", got)
	}

	target := setupTestDB(t)
	if err := NewBackupService(target).Import(ctx, &buf); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	restored, err := repository.NewUserRepository(target).GetUserByEmail(ctx, "learner@example.com")
	if err != nil || restored == nil {
		t.Fatalf("user not restored: %v", err)
	}
	if restored.ID != user.ID || restored.Phone != "+15550100" {
		t.Fatalf("unexpected restored user: %+v", restored)
	}

	restoredSessions, err := repository.NewSessionRepository(target).SessionsForUser(ctx, user.ID, time.Time{})
	if err != nil {
		t.Fatalf("failed to read sessions: %v", err)
	}
	if len(restoredSessions) != 1 || restoredSessions[0].Mood != "happy" || restoredSessions[0].CorrectCount != 1 {
		t.Fatalf("unexpected restored sessions: %+v", restoredSessions)
	}

	questions, err := NewCatalogService(target, nil).AllQuestions(ctx)
	if err != nil {
		t.Fatalf("failed to read questions: %v", err)
	}
	if len(questions) != len(exported.Questions) {
		t.Fatalf("expected %d questions, got %d", len(exported.Questions), len(questions))
	}
}

func TestBackupImportIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	// the second user reuses the first email, so the whole import must roll back
	backup := `{
		"version": "1.0",
		"users": [
			{"id": 1, "email": "a@example.com", "full_name": "A"},
			{"id": 2, "email": "a@example.com", "full_name": "B"}
		]
	}`
	if err := NewBackupService(db).Import(ctx, strings.NewReader(backup)); err == nil {
		t.Fatal("expected import to fail on a duplicate email")
	}

	users, err := repository.NewUserRepository(db).GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("failed to list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users after a failed import, got %d", len(users))
	}
}

func TestBackupClear(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	if _, err := NewCatalogService(db, nil).SeedFromDir(ctx, "../../data/quizzes"); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	if err := NewBackupService(db).Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	questions, err := NewCatalogService(db, nil).AllQuestions(ctx)
	if err != nil {
		t.Fatalf("failed to read questions: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected an empty catalog, got %d questions", len(questions))
	}
}
