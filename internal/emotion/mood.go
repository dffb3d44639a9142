package emotion

import "github.com/pbaille/dreamlog/internal/domain"

// Weights turn an emotion vector into a signed mood score
var Weights = map[domain.Emotion]float64{
	domain.Joy:      1.0,
	domain.Trust:    0.8,
	domain.Surprise: 0.3,
	domain.Sadness:  -0.7,
	domain.Fear:     -1.0,
	domain.Anger:    -0.9,
}

// WeightedScore sums weight*intensity over the six emotions. The result is not
// clamped.
func WeightedScore(vec domain.EmotionVector) float64 {
	var score float64
	for _, e := range domain.Emotions {
		score += Weights[e] * vec[e]
	}
	return score
}

// DominantLabel returns the capitalized name of the strongest emotion, or
// Neutral when the vector is empty or its maximum is zero. Ties go to the
// emotion listed first in domain.Emotions.
func DominantLabel(vec domain.EmotionVector) string {
	if len(vec) == 0 {
		return domain.NeutralLabel
	}

	var best domain.Emotion
	bestVal := 0.0
	found := false
	for _, e := range domain.Emotions {
		v, ok := vec[e]
		if !ok {
			continue
		}
		if !found || v > bestVal {
			best, bestVal, found = e, v, true
		}
	}

	if !found || bestVal == 0 {
		return domain.NeutralLabel
	}
	return best.Title()
}
