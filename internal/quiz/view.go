package quiz

import "cardquiz/internal/models"

// QuestionView is the client-facing current question. The answer is
// only included once the question is locked.
type QuestionView struct {
	ID         int64               `json:"id"`
	Prompt     string              `json:"prompt"`
	Kind       models.QuestionKind `json:"kind"`
	MediaRef   string              `json:"media_ref,omitempty"`
	MediaURL   string              `json:"media_url,omitempty"`
	OptionKind models.OptionKind   `json:"option_kind"`
	Options    []string            `json:"options"`
	OptionURLs map[string]string   `json:"option_urls,omitempty"`
	Category   string              `json:"category,omitempty"`
	Level      int                 `json:"level"`
}

// View is a snapshot of the attempt for rendering
type View struct {
	QuizID       string        `json:"quiz_id"`
	Phase        Phase         `json:"phase"`
	Index        int           `json:"index"`
	Total        int           `json:"total"`
	Question     *QuestionView `json:"question,omitempty"`
	State        QuestionState `json:"state,omitempty"`
	Selected     string        `json:"selected,omitempty"`
	Attempts     int           `json:"attempts"`
	Feedback     string        `json:"feedback,omitempty"`
	Hint         string        `json:"hint,omitempty"`
	Answer       string        `json:"answer,omitempty"`
	Ready        bool          `json:"ready"`
	CorrectCount int           `json:"correct_count"`
	WrongCount   int           `json:"wrong_count"`
	Moods        []models.Mood `json:"moods,omitempty"`
	Summary      *Summary      `json:"summary,omitempty"`
}

// View returns the current snapshot after applying due transitions
func (r *Runner) View() View {
	r.settle(r.clock())

	v := View{
		QuizID:       r.quizID,
		Phase:        r.phase,
		Index:        r.index,
		Total:        len(r.questions),
		CorrectCount: r.correct,
		WrongCount:   r.wrong,
	}

	switch r.phase {
	case PhaseAnswering:
		q := r.questions[r.index]
		cur := r.current
		v.Question = &QuestionView{
			ID:         q.ID,
			Prompt:     q.Prompt,
			Kind:       q.Kind,
			MediaRef:   q.MediaRef,
			OptionKind: q.OptionKind,
			Options:    q.Options,
			Category:   q.Category,
			Level:      q.Level,
		}
		v.State = r.questionState()
		v.Selected = cur.selected
		v.Attempts = cur.attempts
		v.Feedback = cur.feedback
		v.Ready = cur.ready
		if cur.hintShown {
			v.Hint = q.Hint
		}
		if cur.locked {
			v.Answer = q.Answer
		}
	case PhaseMoodSelection:
		v.Moods = models.SelectableMoods
	case PhaseComplete:
		s := r.Summary()
		v.Summary = &s
	}
	return v
}
