package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cardquiz/internal/media"
	"cardquiz/internal/models"
)

// countingCache is an in-memory QuestionCache
type countingCache struct {
	entries     map[string][]models.Question
	hits        int
	invalidated []string
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string][]models.Question)}
}

func cacheEntry(quizID string, level int) string {
	return quizID + "/" + string(rune('0'+level))
}

func (c *countingCache) Get(_ context.Context, quizID string, level int) ([]models.Question, error) {
	q, ok := c.entries[cacheEntry(quizID, level)]
	if ok {
		c.hits++
	}
	return q, nil
}

func (c *countingCache) Set(_ context.Context, quizID string, level int, questions []models.Question) error {
	c.entries[cacheEntry(quizID, level)] = questions
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, quizID string) error {
	c.invalidated = append(c.invalidated, quizID)
	for k := range c.entries {
		if len(k) > len(quizID) && k[:len(quizID)+1] == quizID+"/" {
			delete(c.entries, k)
		}
	}
	return nil
}

func TestSeedFromDir(t *testing.T) {
	db := setupTestDB(t)
	cache := newCountingCache()
	svc := NewCatalogService(db, cache)
	ctx := context.Background()

	n, err := svc.SeedFromDir(ctx, "../../data/quizzes")
	if err != nil {
		t.Fatalf("SeedFromDir() error = %v", err)
	}
	if n == 0 {
		t.Fatal("SeedFromDir() seeded nothing")
	}

	quizzes, err := svc.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("ListQuizzes() error = %v", err)
	}
	want := []string{"quiz1-easy", "quiz1-hard", "quiz1-med", "quiz2-easy", "quiz2-easy-2"}
	if len(quizzes) != len(want) {
		t.Fatalf("ListQuizzes() = %d quizzes, want %d", len(quizzes), len(want))
	}
	for i, q := range quizzes {
		if q.QuizID != want[i] {
			t.Errorf("quizzes[%d] = %s, want %s", i, q.QuizID, want[i])
		}
	}

	// reseeding replaces rather than duplicates
	if _, err := svc.SeedFromDir(ctx, "../../data/quizzes"); err != nil {
		t.Fatalf("second SeedFromDir() error = %v", err)
	}
	all, err := svc.AllQuestions(ctx)
	if err != nil {
		t.Fatalf("AllQuestions() error = %v", err)
	}
	if len(all) != n {
		t.Errorf("questions after reseed = %d, want %d", len(all), n)
	}
	if len(cache.invalidated) != 2*len(want) {
		t.Errorf("cache invalidations = %d, want %d", len(cache.invalidated), 2*len(want))
	}
}

func TestActiveQuestionsReadThrough(t *testing.T) {
	db := setupTestDB(t)
	cache := newCountingCache()
	svc := NewCatalogService(db, cache)
	ctx := context.Background()

	file := QuizFile{
		QuizID:   "animals",
		Category: "Classification",
		Level:    1,
		Questions: []QuizFileItem{
			{Prompt: "dog", Options: []string{"Animal", "Fruit"}, Answer: "Animal"},
			{Prompt: "pear", Options: []string{"Animal", "Fruit"}, Answer: "Fruit", Level: 2},
			{Prompt: "old", Options: []string{"Animal", "Fruit"}, Answer: "Fruit", Inactive: true},
		},
	}
	if _, err := svc.ReplaceQuiz(ctx, file); err != nil {
		t.Fatalf("ReplaceQuiz() error = %v", err)
	}

	tests := []struct {
		name    string
		quizID  string
		level   int
		want    int
		wantErr error
	}{
		{"all levels", "animals", 0, 2, nil},
		{"level one", "animals", 1, 1, nil},
		{"empty level", "animals", 3, 0, ErrQuizNotFound},
		{"unknown quiz", "plants", 0, 0, ErrQuizNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ActiveQuestions(ctx, tt.quizID, tt.level)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ActiveQuestions() error = %v, want %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("ActiveQuestions() = %d questions, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := svc.ActiveQuestions(ctx, "animals", 0); err != nil {
		t.Fatalf("ActiveQuestions() error = %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
}

func TestReplaceQuizRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCatalogService(db, nil)
	ctx := context.Background()

	good := QuizFile{QuizID: "q", Questions: []QuizFileItem{{Prompt: "a", Options: []string{"x", "y"}, Answer: "x"}}}
	if _, err := svc.ReplaceQuiz(ctx, good); err != nil {
		t.Fatalf("ReplaceQuiz() error = %v", err)
	}

	bad := QuizFile{QuizID: "q", Questions: []QuizFileItem{
		{Prompt: "b", Options: []string{"x", "y"}, Answer: "x"},
		{Prompt: "c", Options: []string{"x", "y"}, Answer: "z"},
	}}
	if _, err := svc.ReplaceQuiz(ctx, bad); !errors.Is(err, models.ErrAnswerNotInOptions) {
		t.Fatalf("ReplaceQuiz(bad) error = %v, want ErrAnswerNotInOptions", err)
	}

	// the failed replace rolled back
	got, err := svc.ActiveQuestions(ctx, "q", 0)
	if err != nil || len(got) != 1 || got[0].Prompt != "a" {
		t.Errorf("after rollback = %+v, %v", got, err)
	}
}

func TestSeedDataMatchesManifest(t *testing.T) {
	manifest, err := media.LoadManifest("../../data/media_manifest.json")
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	files, err := filepath.Glob("../../data/quizzes/*.json")
	if err != nil || len(files) == 0 {
		t.Fatalf("no seed files: %v", err)
	}
	for _, path := range files {
		file, err := ReadQuizFile(path)
		if err != nil {
			t.Fatalf("ReadQuizFile(%s) error = %v", path, err)
		}
		for _, q := range file.toQuestions() {
			if err := q.Validate(); err != nil {
				t.Errorf("%s: %q invalid: %v", file.QuizID, q.Prompt, err)
			}
			if q.MediaRef != "" {
				if _, ok := manifest.Lookup(q.MediaRef); !ok {
					t.Errorf("%s: media %q missing from manifest", file.QuizID, q.MediaRef)
				}
			}
			if q.OptionKind == models.OptionImage {
				for _, opt := range q.Options {
					if _, ok := manifest.Lookup(opt); !ok {
						t.Errorf("%s: option image %q missing from manifest", file.QuizID, opt)
					}
				}
			}
		}
	}
}

func TestReadQuizFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"quiz_id":`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadQuizFile(path); err == nil {
		t.Error("ReadQuizFile() error = nil, want parse error")
	}
}
