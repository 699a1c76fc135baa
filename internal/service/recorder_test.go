package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cardquiz/internal/models"
)

func newTestRecorder(store *memoryStore, pub *recordingPublisher, clock *fakeClock) *SessionRecorder {
	r := NewSessionRecorder(store, pub)
	r.now = clock.Now
	return r
}

func TestRecorderGuestNotRecorded(t *testing.T) {
	store := newMemoryStore()
	r := newTestRecorder(store, &recordingPublisher{}, newFakeClock())

	rs := r.Open(context.Background(), 0, "quiz1-easy")
	if rs != nil {
		t.Fatalf("Open() for guest = %+v, want nil", rs)
	}

	// nil handles are no-ops on every path
	r.LogInteraction(context.Background(), rs, "apple", true, 0, time.Second)
	if r.Close(context.Background(), rs, models.SessionCounters{}, models.MoodHappy) {
		t.Error("Close(nil) = true, want false")
	}
	if len(store.sessions) != 0 || len(store.interactions) != 0 {
		t.Errorf("store written for guest: %d sessions, %d interactions", len(store.sessions), len(store.interactions))
	}
}

func TestRecorderOpenFailureIsSwallowed(t *testing.T) {
	store := newMemoryStore()
	store.failCreate = true
	r := newTestRecorder(store, &recordingPublisher{}, newFakeClock())

	if rs := r.Open(context.Background(), 7, "quiz1-easy"); rs != nil {
		t.Errorf("Open() with failing store = %+v, want nil", rs)
	}
}

func TestRecorderCloseOnce(t *testing.T) {
	store := newMemoryStore()
	pub := &recordingPublisher{}
	clock := newFakeClock()
	r := newTestRecorder(store, pub, clock)
	ctx := context.Background()

	rs := r.Open(ctx, 7, "quiz1-easy")
	if rs == nil {
		t.Fatal("Open() = nil")
	}
	clock.Add(42 * time.Second)

	counters := models.SessionCounters{CorrectCount: 3, WrongCount: 1, WordsSeen: []string{"apple", "bus"}}

	var wg sync.WaitGroup
	results := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results <- r.Close(ctx, rs, counters, models.MoodHappy)
			} else {
				results <- r.AutoClose(ctx, rs, counters)
			}
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("successful closes = %d, want 1", wins)
	}
	if !rs.Closed() {
		t.Error("Closed() = false after close")
	}
	if store.closeWrites != 1 {
		t.Errorf("close writes = %d, want 1", store.closeWrites)
	}
	if pub.count() != 1 {
		t.Errorf("published events = %d, want 1", pub.count())
	}

	s := store.session(rs.ID)
	if s.DurationSeconds != 42 {
		t.Errorf("DurationSeconds = %d, want 42", s.DurationSeconds)
	}
	if s.CorrectCount != 3 || s.WrongCount != 1 {
		t.Errorf("counters = %d/%d, want 3/1", s.CorrectCount, s.WrongCount)
	}
}

func TestRecorderAutoClose(t *testing.T) {
	tests := []struct {
		name        string
		counters    models.SessionCounters
		wantSession bool
		wantMood    string
	}{
		{
			name:        "answered session closes neutral",
			counters:    models.SessionCounters{CorrectCount: 1, WordsSeen: []string{"apple"}},
			wantSession: true,
			wantMood:    string(models.MoodNeutral),
		},
		{
			name:        "untouched session is discarded",
			counters:    models.SessionCounters{},
			wantSession: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			r := newTestRecorder(store, &recordingPublisher{}, newFakeClock())
			ctx := context.Background()

			rs := r.Open(ctx, 7, "quiz1-easy")
			if !r.AutoClose(ctx, rs, tt.counters) {
				t.Fatal("AutoClose() = false, want true")
			}
			if r.AutoClose(ctx, rs, tt.counters) {
				t.Error("second AutoClose() = true, want false")
			}

			s := store.session(rs.ID)
			if (s != nil) != tt.wantSession {
				t.Fatalf("session present = %v, want %v", s != nil, tt.wantSession)
			}
			if s != nil && s.Mood != tt.wantMood {
				t.Errorf("Mood = %q, want %q", s.Mood, tt.wantMood)
			}
			if store.openCount() != 0 {
				t.Errorf("open sessions = %d, want 0", store.openCount())
			}
		})
	}
}

func TestRecorderLogInteraction(t *testing.T) {
	store := newMemoryStore()
	r := newTestRecorder(store, &recordingPublisher{}, newFakeClock())
	ctx := context.Background()

	rs := r.Open(ctx, 7, "quiz1-easy")
	r.LogInteraction(ctx, rs, "apple", false, 1, 2500*time.Millisecond)

	if len(store.interactions) != 1 {
		t.Fatalf("interactions = %d, want 1", len(store.interactions))
	}
	in := store.interactions[0]
	if in.SessionID != rs.ID || in.Prompt != "apple" || in.Correct || in.RetryCount != 1 {
		t.Errorf("interaction = %+v", in)
	}
	if in.TimeTakenSeconds != 2.5 {
		t.Errorf("TimeTakenSeconds = %v, want 2.5", in.TimeTakenSeconds)
	}
}
