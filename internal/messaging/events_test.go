package messaging

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	if err := p.PublishSessionClosed(context.Background(), SessionClosedEvent{SessionID: 1}); err != nil {
		t.Errorf("PublishSessionClosed() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSessionClosedEventJSON(t *testing.T) {
	ev := SessionClosedEvent{
		SessionID:  9,
		UserID:     3,
		QuizID:     "animals",
		EndedAt:    time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		Mood:       "neutral",
		AutoClosed: true,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, field := range []string{`"session_id":9`, `"quiz_id":"animals"`, `"auto_closed":true`} {
		if !strings.Contains(string(b), field) {
			t.Errorf("encoded event %s missing %s", b, field)
		}
	}
}
