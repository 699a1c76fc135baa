package progress

import (
	"fmt"
	"math"
	"time"

	"cardquiz/internal/models"
)

// Insight is a short remark about the learner's recent performance
type Insight struct {
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Achievement is a milestone unlocked by the quiz history
type Achievement struct {
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HistorySummary is the progress view over the offline quiz history
type HistorySummary struct {
	TotalAttempts     int                `json:"total_attempts"`
	TotalCorrect      int                `json:"total_correct"`
	TotalQuestions    int                `json:"total_questions"`
	AverageAccuracy   float64            `json:"average_accuracy"`
	RecentAccuracy    float64            `json:"recent_accuracy"`
	Improvement       float64            `json:"improvement"`
	Improving         bool               `json:"improving"`
	RecentActivity    int                `json:"recent_activity"`
	Streak            int                `json:"streak"`
	Performance       string             `json:"performance,omitempty"`
	CategoryScores    map[string]float64 `json:"category_scores"`
	TypeCounts        map[string]int     `json:"type_counts"`
	StrongestCategory string             `json:"strongest_category,omitempty"`
	Insights          []Insight          `json:"insights"`
	Achievements      []Achievement      `json:"achievements"`
}

const (
	recentAttempts = 5

	// Improvement compares the last trendAttempts against everything
	// before them; above improvingThreshold points the learner is improving.
	trendAttempts      = 3
	improvingThreshold = 5
)

// SummarizeHistory derives the progress summary from the history list,
// oldest first. Days are taken in now's location.
func SummarizeHistory(items []models.HistoryItem, now time.Time) HistorySummary {
	s := HistorySummary{
		TotalAttempts:  len(items),
		CategoryScores: map[string]float64{},
		TypeCounts:     map[string]int{},
		Insights:       []Insight{},
		Achievements:   []Achievement{},
	}
	if len(items) == 0 {
		return s
	}

	var accuracySum float64
	var categories []string
	scoreSum := map[string]int{}
	scoreCount := map[string]int{}
	active := map[string]bool{}
	perfect := 0
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	for _, h := range items {
		accuracySum += h.Accuracy
		s.TotalCorrect += h.Score
		s.TotalQuestions += h.Total
		s.TypeCounts[h.Type]++
		if h.Accuracy == 100 {
			perfect++
		}

		if _, seen := scoreCount[h.Category]; !seen {
			categories = append(categories, h.Category)
		}
		scoreSum[h.Category] += h.Score
		scoreCount[h.Category]++

		if !h.LastAttempt.IsZero() {
			at := h.LastAttempt.In(now.Location())
			active[at.Format(dayLayout)] = true
			if !at.Before(yesterday) && at.Before(today.AddDate(0, 0, 1)) {
				s.RecentActivity++
			}
		}
	}

	s.AverageAccuracy = round1(accuracySum / float64(len(items)))
	s.RecentAccuracy = round1(recentAverage(items, recentAttempts))
	s.Improvement = round1(improvement(items))
	s.Improving = s.Improvement > improvingThreshold
	s.Streak = streak(active, today)
	s.Performance = performanceLabel(s.AverageAccuracy)

	best := math.Inf(-1)
	for _, c := range categories {
		avg := float64(scoreSum[c]) / float64(scoreCount[c])
		s.CategoryScores[c] = round1(avg)
		// ties go to the later category
		if avg >= best {
			best = avg
			s.StrongestCategory = c
		}
	}

	s.Insights = insights(s)
	s.Achievements = achievements(s, perfect, len(categories))
	return s
}

func recentAverage(items []models.HistoryItem, n int) float64 {
	if len(items) < n {
		n = len(items)
	}
	var sum float64
	for _, h := range items[len(items)-n:] {
		sum += h.Accuracy
	}
	return sum / float64(n)
}

// improvement is the mean accuracy of the last trendAttempts minus the mean
// of the attempts before them. Zero until there is an earlier attempt to
// compare against.
func improvement(items []models.HistoryItem) float64 {
	if len(items) <= trendAttempts {
		return 0
	}
	split := len(items) - trendAttempts
	var older float64
	for _, h := range items[:split] {
		older += h.Accuracy
	}
	return recentAverage(items, trendAttempts) - older/float64(split)
}

func performanceLabel(avg float64) string {
	switch {
	case avg >= 80:
		return "Excellent"
	case avg >= 60:
		return "Good Progress"
	default:
		return "Needs Support"
	}
}

func insights(s HistorySummary) []Insight {
	var out []Insight
	switch {
	case s.RecentAccuracy >= 90:
		out = append(out, Insight{"🌟", "Excellent Performance!", "Mastering concepts with 90%+ accuracy"})
	case s.RecentAccuracy >= 75:
		out = append(out, Insight{"📈", "Great Progress!", "Steady improvement with strong understanding"})
	case s.RecentAccuracy >= 60:
		out = append(out, Insight{"💪", "Keep Going!", "Building confidence through consistent practice"})
	default:
		out = append(out, Insight{"🎯", "Focus Time!", "Consider reviewing topics that need more attention"})
	}

	if s.StrongestCategory != "" {
		out = append(out, Insight{"🏆", "Strong Subject Area", fmt.Sprintf("Excellent performance in %s", s.StrongestCategory)})
	}
	if s.TotalAttempts >= 10 {
		out = append(out, Insight{"⭐", "Consistent Learner", fmt.Sprintf("%d quiz attempts show dedication to learning", s.TotalAttempts)})
	}
	return out
}

func achievements(s HistorySummary, perfect, categories int) []Achievement {
	out := []Achievement{}
	if s.TotalAttempts >= 5 {
		out = append(out, Achievement{"🎯", "Quiz Explorer", fmt.Sprintf("Completed %d quizzes", s.TotalAttempts)})
	}
	if s.TotalAttempts >= 10 {
		out = append(out, Achievement{"🏃", "Learning Runner", "Completed 10+ quizzes"})
	}
	if s.TotalAttempts >= 20 {
		out = append(out, Achievement{"🌟", "Quiz Master", "Completed 20+ quizzes"})
	}
	if s.AverageAccuracy >= 80 {
		out = append(out, Achievement{"🎓", "High Achiever", fmt.Sprintf("%d%% average accuracy", int(math.Round(s.AverageAccuracy)))})
	}
	if s.AverageAccuracy >= 90 {
		out = append(out, Achievement{"🏆", "Excellence Award", "Consistently high performance"})
	}
	if perfect >= 3 {
		out = append(out, Achievement{"💯", "Perfect Scorer", fmt.Sprintf("%d perfect scores", perfect)})
	}
	if categories >= 3 {
		out = append(out, Achievement{"🎨", "Well-Rounded", fmt.Sprintf("Learning across %d subjects", categories)})
	}
	if s.Streak >= 3 {
		out = append(out, Achievement{"🔥", "Learning Streak", fmt.Sprintf("%d days in a row", s.Streak)})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
