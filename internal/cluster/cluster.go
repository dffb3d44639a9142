// Package cluster groups dream texts into topics. Every call fits a fresh
// vectorizer and model on the texts it is given; nothing is cached between
// calls, and cluster ids carry no meaning from one call to the next.
package cluster

import (
	"sort"
)

// Summary describes one cluster of a run
type Summary struct {
	ID       int      `json:"id"`
	Size     int      `json:"size"`
	TopTerms []string `json:"top_terms,omitempty"`
}

// Result is the outcome of one clustering run
type Result struct {
	Assignments []int     `json:"assignments"`
	Clusters    []Summary `json:"clusters"`
	Inertia     float64   `json:"inertia"`
}

const topTermsPerCluster = 3

// Cluster returns one cluster id per text, in input order. When there are
// fewer texts than k every text is assigned to cluster 0.
func Cluster(texts []string, k int) []int {
	return Analyze(texts, k).Assignments
}

// Analyze clusters texts and summarizes each cluster by size and top terms
func Analyze(texts []string, k int) Result {
	if k < 1 {
		k = 1
	}
	if len(texts) < k {
		return degenerate(len(texts))
	}

	m := NewVectorizer().FitTransform(texts)
	if len(m.Vocabulary) == 0 {
		return degenerate(len(texts))
	}

	labels, inertia := NewKMeans(k).Fit(m.Rows)
	return Result{
		Assignments: labels,
		Clusters:    summarize(labels, m),
		Inertia:     inertia,
	}
}

func degenerate(n int) Result {
	res := Result{Assignments: make([]int, n)}
	if n > 0 {
		res.Clusters = []Summary{{ID: 0, Size: n}}
	}
	return res
}

func summarize(labels []int, m Matrix) []Summary {
	sizes := make(map[int]int)
	weights := make(map[int][]float64)
	for i, l := range labels {
		sizes[l]++
		if weights[l] == nil {
			weights[l] = make([]float64, len(m.Vocabulary))
		}
		for j, x := range m.Rows[i] {
			weights[l][j] += x
		}
	}

	out := make([]Summary, 0, len(sizes))
	for id, size := range sizes {
		out = append(out, Summary{
			ID:       id,
			Size:     size,
			TopTerms: topTerms(weights[id], m.Vocabulary, topTermsPerCluster),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func topTerms(weights []float64, vocab []string, n int) []string {
	idx := make([]int, 0, len(weights))
	for j, w := range weights {
		if w > 0 {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return weights[idx[a]] > weights[idx[b]]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	terms := make([]string, len(idx))
	for i, j := range idx {
		terms[i] = vocab[j]
	}
	return terms
}

// Match is a text ranked by similarity to a reference text
type Match struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Similar ranks the other texts by TF-IDF cosine similarity to texts[ref],
// returning at most n matches with a positive score
func Similar(texts []string, ref, n int) []Match {
	if ref < 0 || ref >= len(texts) {
		return nil
	}
	m := NewVectorizer().FitTransform(texts)

	var matches []Match
	for i, row := range m.Rows {
		if i == ref {
			continue
		}
		if s := CosineSimilarity(m.Rows[ref], row); s > 0 {
			matches = append(matches, Match{Index: i, Score: s})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if n > 0 && len(matches) > n {
		matches = matches[:n]
	}
	return matches
}

// Summaries counts texts per cluster id and lists each cluster's top terms
func Summaries(ids []int, texts []string) []Summary {
	if len(ids) != len(texts) || len(texts) == 0 {
		return nil
	}
	m := NewVectorizer().FitTransform(texts)
	if len(m.Vocabulary) == 0 {
		return degenerate(len(texts)).Clusters
	}
	return summarize(ids, m)
}
