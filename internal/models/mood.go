package models

// Mood tags a closed session with how the learner felt
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodExcited Mood = "excited"
	MoodOkay    Mood = "okay"
	MoodTired   Mood = "tired"
	MoodSad     Mood = "sad"

	// MoodNeutral is written when a session is closed without a choice
	MoodNeutral Mood = "neutral"
)

// NoMoodEmoji is shown for days without a recorded mood
const NoMoodEmoji = "➖"

var moodEmoji = map[Mood]string{
	MoodHappy:   "😊",
	MoodExcited: "🤩",
	MoodOkay:    "🙂",
	MoodTired:   "😴",
	MoodSad:     "😢",
	MoodNeutral: "😐",
}

// SelectableMoods lists the moods offered at the end of a quiz, in display order
var SelectableMoods = []Mood{MoodHappy, MoodExcited, MoodOkay, MoodTired, MoodSad}

// Valid reports whether the mood can be chosen by a learner
func (m Mood) Valid() bool {
	for _, s := range SelectableMoods {
		if s == m {
			return true
		}
	}
	return false
}

// Emoji returns the display emoji, or NoMoodEmoji for unknown tags
func (m Mood) Emoji() string {
	if e, ok := moodEmoji[m]; ok {
		return e
	}
	return NoMoodEmoji
}
