// Package progress derives learner analytics from recorded sessions and
// from the offline quiz history. Everything here is pure: callers fetch
// the records and pass the current time.
package progress

import (
	"math"
	"sort"
	"time"

	"cardquiz/internal/models"
)

// DefaultWindowDays is the trailing window used when none is given
const DefaultWindowDays = 7

// Prompts answered at least this often and below this accuracy are
// reported as struggling.
const (
	strugglingMinAttempts = 3
	strugglingAccuracy    = 60
)

const dayLayout = "2006-01-02"

// DayBucket is one calendar day of the trailing window
type DayBucket struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Quizzes   int    `json:"quizzes"`
	Correct   int    `json:"correct"`
	Wrong     int    `json:"wrong"`
	MoodEmoji string `json:"mood_emoji"`
}

// StrugglingPrompt is a prompt the learner keeps getting wrong
type StrugglingPrompt struct {
	Prompt   string `json:"prompt"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"`
}

// Metrics is the progress view for one user
type Metrics struct {
	WindowDays          int                `json:"window_days"`
	Accuracy            int                `json:"accuracy"`
	TotalSessions       int                `json:"total_sessions"`
	TotalCorrect        int                `json:"total_correct"`
	TotalWrong          int                `json:"total_wrong"`
	Streak              int                `json:"streak"`
	Days                []DayBucket        `json:"days"`
	AvgSecondsPerAnswer float64            `json:"avg_seconds_per_answer"`
	Struggling          []StrugglingPrompt `json:"struggling"`
	Synthetic           bool               `json:"synthetic"`
}

// HasData reports whether the metrics reflect any recorded activity
func (m Metrics) HasData() bool {
	return m.TotalSessions > 0 || m.Streak > 0
}

// HasHistory reports whether any session counts as activity, whatever its
// age. A learner with only old sessions has real, if empty, metrics.
func HasHistory(sessions []models.QuizSession) bool {
	for i := range sessions {
		if sessions[i].HasActivity() {
			return true
		}
	}
	return false
}

// ComputeMetrics aggregates sessions and interactions into the trailing
// window ending on now's calendar day, in now's location. Sessions without
// any activity are ignored.
func ComputeMetrics(sessions []models.QuizSession, interactions []models.Interaction, now time.Time, windowDays int) Metrics {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	loc := now.Location()
	today := startOfDay(now)
	windowStart := today.AddDate(0, 0, -(windowDays - 1))
	windowEnd := today.AddDate(0, 0, 1)

	m := Metrics{
		WindowDays: windowDays,
		Days:       make([]DayBucket, windowDays),
		Struggling: []StrugglingPrompt{},
	}
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		day := windowStart.AddDate(0, 0, i)
		key := day.Format(dayLayout)
		index[key] = i
		m.Days[i] = DayBucket{Date: key, Weekday: day.Format("Mon"), MoodEmoji: models.NoMoodEmoji}
	}

	active := make(map[string]bool)
	moodAt := make(map[string]time.Time)

	for _, s := range sessions {
		if !s.HasActivity() {
			continue
		}
		started := s.StartedAt.In(loc)
		key := started.Format(dayLayout)
		active[key] = true

		i, inWindow := index[key]
		if !inWindow {
			continue
		}
		b := &m.Days[i]
		b.Quizzes++
		b.Correct += s.CorrectCount
		b.Wrong += s.WrongCount

		m.TotalSessions++
		m.TotalCorrect += s.CorrectCount
		m.TotalWrong += s.WrongCount

		if s.Mood == "" {
			continue
		}
		if last, ok := moodAt[key]; !ok || started.After(last) {
			moodAt[key] = started
			b.MoodEmoji = models.Mood(s.Mood).Emoji()
		}
	}

	m.Accuracy = percent(m.TotalCorrect, m.TotalCorrect+m.TotalWrong)
	m.Streak = streak(active, today)

	var totalTime float64
	var answered int
	byPrompt := make(map[string]*StrugglingPrompt)
	for _, in := range interactions {
		at := in.CreatedAt.In(loc)
		if at.Before(windowStart) || !at.Before(windowEnd) {
			continue
		}
		answered++
		totalTime += in.TimeTakenSeconds

		p, ok := byPrompt[in.Prompt]
		if !ok {
			p = &StrugglingPrompt{Prompt: in.Prompt}
			byPrompt[in.Prompt] = p
		}
		p.Attempts++
		if in.Correct {
			p.Correct++
		}
	}
	if answered > 0 {
		m.AvgSecondsPerAnswer = math.Round(totalTime/float64(answered)*10) / 10
	}

	for _, p := range byPrompt {
		p.Accuracy = percent(p.Correct, p.Attempts)
		if p.Attempts >= strugglingMinAttempts && p.Accuracy < strugglingAccuracy {
			m.Struggling = append(m.Struggling, *p)
		}
	}
	sort.Slice(m.Struggling, func(i, j int) bool {
		a, b := m.Struggling[i], m.Struggling[j]
		if a.Accuracy != b.Accuracy {
			return a.Accuracy < b.Accuracy
		}
		return a.Prompt < b.Prompt
	})

	return m
}

// streak counts consecutive active days walking back from today.
// A day without activity today means no streak.
func streak(active map[string]bool, today time.Time) int {
	n := 0
	for day := today; active[day.Format(dayLayout)]; day = day.AddDate(0, 0, -1) {
		n++
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
