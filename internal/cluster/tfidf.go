package cluster

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxFeatures caps the vocabulary size
const DefaultMaxFeatures = 500

// Preprocess lowercases text and drops every rune that is not an ASCII
// lowercase letter or whitespace
func Preprocess(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Vectorizer builds L2-normalized TF-IDF rows over a corpus
type Vectorizer struct {
	MaxFeatures int
	StopWords   map[string]bool
}

// NewVectorizer returns a vectorizer with the English stopword list and the
// default vocabulary cap
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		MaxFeatures: DefaultMaxFeatures,
		StopWords:   EnglishStopWords(),
	}
}

// Matrix is a fitted document-term matrix
type Matrix struct {
	Vocabulary []string
	Rows       [][]float64
}

// tokens splits preprocessed text into words of at least two letters,
// skipping stopwords
func (v *Vectorizer) tokens(doc string) []string {
	var out []string
	for _, w := range strings.Fields(doc) {
		if len(w) < 2 || v.StopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// FitTransform learns the vocabulary from docs and returns their TF-IDF rows.
// The vocabulary keeps the MaxFeatures most frequent terms across the corpus,
// ties broken alphabetically, and is then ordered alphabetically.
func (v *Vectorizer) FitTransform(docs []string) Matrix {
	counts := make([]map[string]int, len(docs))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, tok := range v.tokens(Preprocess(doc)) {
			counts[i][tok]++
			corpusFreq[tok]++
		}
		for tok := range counts[i] {
			docFreq[tok]++
		}
	}

	vocab := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		vocab = append(vocab, term)
	}
	sort.Slice(vocab, func(a, b int) bool {
		fa, fb := corpusFreq[vocab[a]], corpusFreq[vocab[b]]
		if fa != fb {
			return fa > fb
		}
		return vocab[a] < vocab[b]
	})
	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	rows := make([][]float64, len(docs))
	for i := range docs {
		row := make([]float64, len(vocab))
		var norm float64
		for j, term := range vocab {
			if c := counts[i][term]; c > 0 {
				row[j] = float64(c) * idf[j]
				norm += row[j] * row[j]
			}
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
		rows[i] = row
	}

	return Matrix{Vocabulary: vocab, Rows: rows}
}

// CosineSimilarity computes similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
