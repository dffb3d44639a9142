package emotion

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pbaille/dreamlog/internal/domain"
)

//go:embed lexicon.tsv
var builtinLexicon string

// Scorer maps raw text to an emotion vector over the six reported emotions
type Scorer interface {
	Score(text string) domain.EmotionVector
}

// Lexicon holds word to emotion-category associations. It may know more
// categories than the six that are reported.
type Lexicon struct {
	words map[string][]string
}

// ParseLexicon reads tab-separated "word<TAB>cat1,cat2" lines. Blank lines and
// lines starting with # are ignored.
func ParseLexicon(r io.Reader) (*Lexicon, error) {
	lex := &Lexicon{words: make(map[string][]string)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, cats, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("lexicon line %d: missing tab separator", line)
		}
		word = strings.ToLower(strings.TrimSpace(word))
		for _, c := range strings.Split(cats, ",") {
			if c = strings.TrimSpace(c); c != "" {
				lex.words[word] = append(lex.words[word], c)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return lex, nil
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the lexicon compiled into the binary
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		lex, err := ParseLexicon(strings.NewReader(builtinLexicon))
		if err != nil {
			panic(fmt.Sprintf("builtin lexicon: %v", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

// Categories lists every category the lexicon knows, sorted
func (l *Lexicon) Categories() []string {
	seen := make(map[string]bool)
	for _, cats := range l.words {
		for _, c := range cats {
			seen[c] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RawScores counts, per category, the tokens of text associated with it
func (l *Lexicon) RawScores(text string) map[string]int {
	scores := make(map[string]int)
	for _, tok := range Tokenize(text) {
		for _, c := range l.words[tok] {
			scores[c]++
		}
	}
	return scores
}

// Tokenize lowercases text and splits it into letter runs. Apostrophes
// inside a word are kept.
func Tokenize(text string) []string {
	var tokens []string
	var sb strings.Builder
	runes := []rune(strings.ToLower(text))
	flush := func() {
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r):
			sb.WriteRune(r)
		case r == '\'' && sb.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			sb.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// Option configures a LexiconScorer
type Option func(*LexiconScorer)

// WithLexicon swaps the association table
func WithLexicon(l *Lexicon) Option {
	return func(s *LexiconScorer) {
		s.lexicon = l
	}
}

// WithReportedNormalization divides by the six reported categories' total
// instead of the total over every lexicon category
func WithReportedNormalization() Option {
	return func(s *LexiconScorer) {
		s.reportedOnly = true
	}
}

// LexiconScorer scores text by counting lexicon associations
type LexiconScorer struct {
	lexicon      *Lexicon
	reportedOnly bool
}

// NewLexiconScorer creates a scorer over the builtin lexicon unless overridden
func NewLexiconScorer(opts ...Option) *LexiconScorer {
	s := &LexiconScorer{lexicon: DefaultLexicon()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the normalized intensity of each reported emotion. The
// denominator is the raw total across all lexicon categories, so the six
// values may sum to less than 1.
func (s *LexiconScorer) Score(text string) domain.EmotionVector {
	vec := domain.NewEmotionVector()
	raw := s.lexicon.RawScores(text)

	total := 0
	if s.reportedOnly {
		for _, e := range domain.Emotions {
			total += raw[string(e)]
		}
	} else {
		for _, n := range raw {
			total += n
		}
	}
	if total == 0 {
		return vec
	}

	for _, e := range domain.Emotions {
		vec[e] = float64(raw[string(e)]) / float64(total)
	}
	return vec
}
