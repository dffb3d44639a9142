package journal

import (
	"regexp"
	"strings"

	"github.com/pbaille/dreamlog/internal/domain"
)

// Search returns entries whose text contains query, ignoring case
func Search(entries []domain.Entry, query string) []domain.Entry {
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		return nil
	}

	var out []domain.Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Text), q) {
			out = append(out, e)
		}
	}
	return out
}

// Highlight wraps every case-insensitive occurrence of each term in **[...]**
func Highlight(text string, terms []string) string {
	for _, term := range terms {
		if term == "" {
			continue
		}
		re := regexp.MustCompile("(?i)(" + regexp.QuoteMeta(term) + ")")
		text = re.ReplaceAllString(text, "**[$1]**")
	}
	return text
}
