package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pbaille/dreamlog/internal/classifier"
	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/emotion"
)

// ErrEmptyText is returned when a dream is blank
var ErrEmptyText = errors.New("dream text is required")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err != nil {
		panic(fmt.Sprintf("notblank validation: %v", err))
	}
	return v
}

type submission struct {
	Text string `validate:"notblank"`
}

// Analysis is everything derived from one dream text
type Analysis struct {
	Emotions  domain.EmotionVector `json:"emotions"`
	MoodScore float64              `json:"mood_score"`
	MoodLabel string               `json:"mood_label"`
	Category  domain.Category      `json:"category"`
	Keywords  []string             `json:"keywords,omitempty"`
}

// Analyzer runs the per-entry pipeline
type Analyzer struct {
	scorer emotion.Scorer
}

// NewAnalyzer creates an Analyzer; a nil scorer selects the builtin lexicon
func NewAnalyzer(scorer emotion.Scorer) *Analyzer {
	if scorer == nil {
		scorer = emotion.NewLexiconScorer()
	}
	return &Analyzer{scorer: scorer}
}

// Analyze scores, labels and classifies text. Blank text is rejected before
// any stage runs.
func (a *Analyzer) Analyze(text string) (Analysis, error) {
	if err := validate.Struct(submission{Text: text}); err != nil {
		return Analysis{}, ErrEmptyText
	}

	vec := a.scorer.Score(text)
	explained := classifier.Explain(text)
	return Analysis{
		Emotions:  vec,
		MoodScore: emotion.WeightedScore(vec),
		MoodLabel: emotion.DominantLabel(vec),
		Category:  explained.Category,
		Keywords:  explained.Matched,
	}, nil
}

// apply copies the derived fields onto an entry
func (an Analysis) apply(e *domain.Entry) {
	e.Emotions = an.Emotions
	e.MoodScore = an.MoodScore
	e.MoodLabel = an.MoodLabel
	e.Category = an.Category
}
