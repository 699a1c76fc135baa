package models

import (
	"testing"
	"time"
)

func TestAuthSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := AuthSession{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("AuthSession.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestQuestionValidate(t *testing.T) {
	valid := func() Question {
		return Question{
			QuizID:     "animals",
			Prompt:     "cat",
			Kind:       QuestionImage,
			MediaRef:   "cat",
			OptionKind: OptionText,
			Options:    []string{"cat", "dog", "cow"},
			Answer:     "cat",
			Level:      1,
			Active:     true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(q *Question)
		wantErr error
		anyErr  bool
	}{
		{
			name:   "valid question",
			mutate: func(q *Question) {},
		},
		{
			name:    "one option",
			mutate:  func(q *Question) { q.Options = []string{"cat"} },
			wantErr: ErrTooFewOptions,
		},
		{
			name:    "answer missing from options",
			mutate:  func(q *Question) { q.Answer = "bird" },
			wantErr: ErrAnswerNotInOptions,
		},
		{
			name:   "unknown kind",
			mutate: func(q *Question) { q.Kind = "video" },
			anyErr: true,
		},
		{
			name:   "empty prompt",
			mutate: func(q *Question) { q.Prompt = "" },
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid()
			tt.mutate(&q)
			err := q.Validate()
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("Validate() = nil, want error")
				}
			default:
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
			}
		})
	}
}

func TestQuizSessionActivity(t *testing.T) {
	ended := time.Now()

	tests := []struct {
		name     string
		session  QuizSession
		open     bool
		activity bool
	}{
		{"fresh open session", QuizSession{}, true, false},
		{"open with answers", QuizSession{WrongCount: 2}, true, true},
		{"closed without answers", QuizSession{EndedAt: &ended}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsOpen(); got != tt.open {
				t.Errorf("IsOpen() = %v, want %v", got, tt.open)
			}
			if got := tt.session.HasActivity(); got != tt.activity {
				t.Errorf("HasActivity() = %v, want %v", got, tt.activity)
			}
		})
	}
}

func TestMood(t *testing.T) {
	if !MoodHappy.Valid() {
		t.Error("happy should be selectable")
	}
	if MoodNeutral.Valid() {
		t.Error("neutral is reserved for auto-close and should not be selectable")
	}
	if got := Mood("grumpy").Emoji(); got != NoMoodEmoji {
		t.Errorf("unknown mood emoji = %q, want placeholder", got)
	}
	if MoodNeutral.Emoji() == NoMoodEmoji {
		t.Error("neutral should have its own emoji")
	}
}

func TestProfileFullName(t *testing.T) {
	tests := []struct {
		profile Profile
		want    string
	}{
		{Profile{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{Profile{FirstName: "Ada"}, "Ada"},
		{Profile{LastName: "Lovelace"}, "Lovelace"},
		{Profile{}, ""},
	}

	for _, tt := range tests {
		if got := tt.profile.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}
