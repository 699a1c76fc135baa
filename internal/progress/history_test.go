package progress

import (
	"testing"

	"cardquiz/internal/models"
)

func item(category, kind string, score, total int, accuracy float64, daysBack int) models.HistoryItem {
	return models.HistoryItem{
		QuizID:      "quiz1-easy",
		Category:    category,
		Type:        kind,
		Score:       score,
		Total:       total,
		Accuracy:    accuracy,
		LastAttempt: daysAgo(daysBack, 10),
	}
}

func TestSummarizeHistoryEmpty(t *testing.T) {
	s := SummarizeHistory(nil, testNow)
	if s.TotalAttempts != 0 || len(s.Insights) != 0 || len(s.Achievements) != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestSummarizeHistory(t *testing.T) {
	items := []models.HistoryItem{
		item("Classification", "image", 2, 5, 40, 6),
		item("Classification", "image", 3, 5, 60, 4),
		item("Animals", "text", 5, 5, 100, 2),
		item("Colors", "audio", 5, 5, 100, 1),
		item("Animals", "text", 5, 5, 100, 0),
		item("Colors", "text", 4, 5, 80, 0),
	}

	s := SummarizeHistory(items, testNow)

	if s.TotalAttempts != 6 || s.TotalCorrect != 24 || s.TotalQuestions != 30 {
		t.Errorf("totals = %d/%d/%d, want 6/24/30", s.TotalAttempts, s.TotalCorrect, s.TotalQuestions)
	}
	if s.AverageAccuracy != 80 {
		t.Errorf("AverageAccuracy = %v, want 80", s.AverageAccuracy)
	}
	if s.RecentAccuracy != 88 {
		t.Errorf("RecentAccuracy = %v, want 88", s.RecentAccuracy)
	}
	if s.Improvement != 26.7 || !s.Improving {
		t.Errorf("Improvement = %v (improving %v), want 26.7 and improving", s.Improvement, s.Improving)
	}
	if s.RecentActivity != 3 {
		t.Errorf("RecentActivity = %d, want 3", s.RecentActivity)
	}
	if s.Streak != 3 {
		t.Errorf("Streak = %d, want 3", s.Streak)
	}
	if s.Performance != "Excellent" {
		t.Errorf("Performance = %q, want Excellent", s.Performance)
	}
	if s.StrongestCategory != "Animals" {
		t.Errorf("StrongestCategory = %q, want Animals", s.StrongestCategory)
	}
	if s.TypeCounts["text"] != 3 || s.TypeCounts["image"] != 2 {
		t.Errorf("TypeCounts = %v", s.TypeCounts)
	}
	if s.CategoryScores["Colors"] != 4.5 {
		t.Errorf("CategoryScores[Colors] = %v, want 4.5", s.CategoryScores["Colors"])
	}

	if len(s.Insights) != 2 || s.Insights[0].Title != "Great Progress!" {
		t.Errorf("Insights = %+v", s.Insights)
	}

	want := map[string]bool{"Quiz Explorer": true, "High Achiever": true, "Perfect Scorer": true, "Well-Rounded": true, "Learning Streak": true}
	if len(s.Achievements) != len(want) {
		t.Errorf("Achievements = %+v", s.Achievements)
	}
	for _, a := range s.Achievements {
		if !want[a.Title] {
			t.Errorf("unexpected achievement %q", a.Title)
		}
	}
}

func TestImprovement(t *testing.T) {
	tests := []struct {
		name       string
		accuracies []float64
		want       float64
		improving  bool
	}{
		{name: "too few to compare", accuracies: []float64{20, 100, 100}, want: 0},
		{name: "steady", accuracies: []float64{80, 80, 80, 80}, want: 0},
		{name: "at threshold", accuracies: []float64{70, 75, 75, 75}, want: 5},
		{name: "improving", accuracies: []float64{50, 60, 90, 90, 90}, want: 35, improving: true},
		{name: "slipping", accuracies: []float64{100, 60, 60, 60}, want: -40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items []models.HistoryItem
			for _, acc := range tt.accuracies {
				items = append(items, item("Animals", "text", 1, 1, acc, 0))
			}
			s := SummarizeHistory(items, testNow)
			if s.Improvement != tt.want || s.Improving != tt.improving {
				t.Errorf("Improvement = %v (improving %v), want %v (%v)", s.Improvement, s.Improving, tt.want, tt.improving)
			}
		})
	}
}

func TestRecentActivityCountsTodayAndYesterday(t *testing.T) {
	items := []models.HistoryItem{
		item("Animals", "text", 1, 1, 100, 3),
		item("Animals", "text", 1, 1, 100, 2),
		item("Animals", "text", 1, 1, 100, 1),
		item("Animals", "text", 1, 1, 100, 0),
	}
	if got := SummarizeHistory(items, testNow).RecentActivity; got != 2 {
		t.Errorf("RecentActivity = %d, want 2", got)
	}
}

func TestPerformanceLabel(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{95, "Excellent"},
		{80, "Excellent"},
		{79.9, "Good Progress"},
		{60, "Good Progress"},
		{10, "Needs Support"},
	}
	for _, tt := range tests {
		if got := performanceLabel(tt.avg); got != tt.want {
			t.Errorf("performanceLabel(%v) = %q, want %q", tt.avg, got, tt.want)
		}
	}
}
