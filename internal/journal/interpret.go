package journal

import (
	"fmt"
	"strings"

	"github.com/pbaille/dreamlog/internal/domain"
)

type threshold struct {
	emotion domain.Emotion
	above   float64
	line    string
}

var thresholds = []threshold{
	{domain.Joy, 0.5, "Joy runs through this dream; it may echo warmth or moments you hold dear."},
	{domain.Sadness, 0.4, "A quiet sadness is present, perhaps reflection or feelings left unspoken."},
	{domain.Fear, 0.3, "Fear surfaces here, hinting at worries or uncertainty below the surface."},
	{domain.Anger, 0.3, "Anger sits in the background, maybe tension or something left unsaid."},
	{domain.Trust, 0.4, "A strong sense of trust fills the dream, a sign of steady bonds or inner calm."},
	{domain.Surprise, 0.3, "Surprise flashes through it; unexpected ideas or events may be at work."},
}

const calmBelow = 0.1

// Interpret writes a short reading of an analyzed dream
func Interpret(a Analysis) string {
	lines := []string{
		fmt.Sprintf("This dream reads as %s, with a dominant feeling of %s.", a.Category, a.MoodLabel),
	}

	for _, t := range thresholds {
		if a.Emotions[t.emotion] > t.above {
			lines = append(lines, t.line)
		}
	}

	calm := true
	for _, v := range a.Emotions {
		if v >= calmBelow {
			calm = false
			break
		}
	}
	if calm {
		lines = append(lines, "The dream feels calm and neutral, like still water at night.")
	}

	lines = append(lines, "Keep logging your dreams each day; patterns show up over weeks, not nights.")
	return strings.Join(lines, "\n\n")
}
