package classifier

import (
	"strings"

	"github.com/pbaille/dreamlog/internal/domain"
)

// Rule ties a category to the keywords that select it
type Rule struct {
	Category domain.Category
	Keywords []string
}

// Rules are evaluated in order; the first rule with a matching keyword wins
var Rules = []Rule{
	{domain.Nightmare, []string{"chase", "dark", "monster", "fall", "death", "attack", "fear"}},
	{domain.Symbolic, []string{"fly", "sea", "sky", "colors", "magic", "strange", "dream", "fantasy"}},
	{domain.Social, []string{"friend", "family", "love", "party", "talk", "relationship"}},
}

// ClassifyResult holds the winning category and the keywords that matched it
type ClassifyResult struct {
	Category domain.Category `json:"category"`
	Matched  []string        `json:"matched,omitempty"`
}

// Classify returns the category of a dream. Matching is a case-insensitive
// substring test, so "deathly" matches "death".
func Classify(text string) domain.Category {
	return Explain(text).Category
}

// Explain classifies text and reports which keywords of the winning rule matched
func Explain(text string) ClassifyResult {
	lower := strings.ToLower(text)
	for _, rule := range Rules {
		var matched []string
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			return ClassifyResult{Category: rule.Category, Matched: matched}
		}
	}
	return ClassifyResult{Category: domain.Other}
}

// MatchedKeywords returns the keywords that decided the category of text
func MatchedKeywords(text string) []string {
	return Explain(text).Matched
}
