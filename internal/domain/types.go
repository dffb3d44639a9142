package domain

import "strings"

// Emotion names one of the six basic emotions reported for an entry
type Emotion string

const (
	Joy      Emotion = "joy"
	Fear     Emotion = "fear"
	Anger    Emotion = "anger"
	Sadness  Emotion = "sadness"
	Surprise Emotion = "surprise"
	Trust    Emotion = "trust"
)

// Emotions is the fixed reporting order. Dominant-mood ties resolve to the
// first emotion in this order.
var Emotions = []Emotion{Joy, Fear, Anger, Sadness, Surprise, Trust}

// Title returns the capitalized emotion name
func (e Emotion) Title() string {
	if e == "" {
		return ""
	}
	return strings.ToUpper(string(e[:1])) + string(e[1:])
}

// EmotionVector maps each emotion to a non-negative intensity
type EmotionVector map[Emotion]float64

// NewEmotionVector returns a vector with every emotion present and zero
func NewEmotionVector() EmotionVector {
	v := make(EmotionVector, len(Emotions))
	for _, e := range Emotions {
		v[e] = 0
	}
	return v
}

// Complete returns a copy holding exactly the six emotions, missing ones as zero
func (v EmotionVector) Complete() EmotionVector {
	out := NewEmotionVector()
	for _, e := range Emotions {
		if val, ok := v[e]; ok {
			out[e] = val
		}
	}
	return out
}

// Sum adds up all intensities
func (v EmotionVector) Sum() float64 {
	var total float64
	for _, val := range v {
		total += val
	}
	return total
}

// Category is the coarse keyword-derived kind of a dream
type Category string

const (
	Nightmare Category = "Nightmare"
	Symbolic  Category = "Symbolic"
	Social    Category = "Social/Emotional"
	Other     Category = "Other"
)

// Categories lists categories in classification precedence order
var Categories = []Category{Nightmare, Symbolic, Social, Other}

var categoryIcons = map[Category]string{
	Nightmare: "😱",
	Symbolic:  "🌈",
	Social:    "❤️",
	Other:     "🌀",
}

// Display returns the label with its icon suffix
func (c Category) Display() string {
	if icon, ok := categoryIcons[c]; ok {
		return string(c) + " " + icon
	}
	return string(c)
}

// ParseCategory accepts a stored label with or without its cosmetic suffix
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if s == string(c) || strings.HasPrefix(s, string(c)+" ") {
			return c, true
		}
	}
	return Other, false
}

// NeutralLabel is reported when no emotion carries any weight
const NeutralLabel = "Neutral"

// Entry represents one logged dream and its analysis
type Entry struct {
	ID        string        `json:"id"`
	Date      Date          `json:"date"`
	Text      string        `json:"dream"`
	MoodScore float64       `json:"mood_score"`
	MoodLabel string        `json:"mood_label"`
	Category  Category      `json:"type"`
	Topics    []string      `json:"topics"`
	Emotions  EmotionVector `json:"mood_detail"`
	ClusterID int           `json:"-"`
}
