package progress

import (
	"time"

	"cardquiz/internal/models"
)

// WithFallback returns m unchanged when it has data, otherwise a small
// sample dataset marked Synthetic so clients can label it.
func WithFallback(m Metrics, now time.Time) Metrics {
	if m.HasData() {
		return m
	}
	return Synthetic(now, m.WindowDays)
}

// Synthetic builds sample metrics for a learner with no history
func Synthetic(now time.Time, windowDays int) Metrics {
	today := startOfDay(now)
	at := func(daysAgo, hour int) time.Time {
		return today.AddDate(0, 0, -daysAgo).Add(time.Duration(hour) * time.Hour)
	}

	sessions := []models.QuizSession{
		sampleSession(at(2, 16), 3, 2, models.MoodOkay),
		sampleSession(at(1, 17), 4, 1, models.MoodHappy),
		sampleSession(at(0, 9), 5, 0, models.MoodExcited),
	}
	interactions := []models.Interaction{
		{Prompt: "apple", Correct: true, TimeTakenSeconds: 3.2, CreatedAt: at(0, 9)},
		{Prompt: "bus", Correct: true, TimeTakenSeconds: 4.1, CreatedAt: at(0, 9)},
		{Prompt: "car", Correct: false, TimeTakenSeconds: 6.0, CreatedAt: at(1, 17)},
	}

	m := ComputeMetrics(sessions, interactions, now, windowDays)
	m.Synthetic = true
	return m
}

func sampleSession(startedAt time.Time, correct, wrong int, mood models.Mood) models.QuizSession {
	ended := startedAt.Add(2 * time.Minute)
	return models.QuizSession{
		QuizID:          "sample",
		StartedAt:       startedAt,
		EndedAt:         &ended,
		DurationSeconds: 120,
		CorrectCount:    correct,
		WrongCount:      wrong,
		Mood:            string(mood),
	}
}
