package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoTopics = []string{
	"Sailing a boat on the ocean, waves everywhere",
	"The ocean waves pushed our little boat",
	"A boat drifting across ocean waves at night",
	"Taking an exam at school, the teacher was watching",
	"My old teacher handed me the exam in school",
	"Late for school and the exam had started, teacher angry",
}

func TestCluster_FewerTextsThanK(t *testing.T) {
	assert.Equal(t, []int{0, 0, 0}, Cluster([]string{"a dream", "another", "third"}, 4))
	assert.Equal(t, []int{}, Cluster(nil, 2))
}

func TestCluster_SeparatesTopics(t *testing.T) {
	ids := Cluster(twoTopics, 2)
	require.Len(t, ids, len(twoTopics))

	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[0], ids[2])
	assert.Equal(t, ids[3], ids[4])
	assert.Equal(t, ids[3], ids[5])
	assert.NotEqual(t, ids[0], ids[3])
	assert.Equal(t, 0, ids[0], "ids are numbered by first appearance")
}

func TestCluster_OrderPreserving(t *testing.T) {
	reversed := make([]string, len(twoTopics))
	for i, s := range twoTopics {
		reversed[len(twoTopics)-1-i] = s
	}

	forward := Cluster(twoTopics, 2)
	backward := Cluster(reversed, 2)
	require.Len(t, backward, len(reversed))

	// Same grouping either way, read back in the matching position
	for i := range twoTopics {
		for j := range twoTopics {
			same := forward[i] == forward[j]
			assert.Equal(t, same, backward[len(twoTopics)-1-i] == backward[len(twoTopics)-1-j])
		}
	}
}

func TestCluster_Deterministic(t *testing.T) {
	assert.Equal(t, Cluster(twoTopics, 3), Cluster(twoTopics, 3))
}

func TestCluster_EmptyVocabulary(t *testing.T) {
	assert.Equal(t, []int{0, 0, 0}, Cluster([]string{"the and of", "123 !!", "a"}, 2))
}

func TestAnalyze_Summaries(t *testing.T) {
	res := Analyze(twoTopics, 2)
	require.Len(t, res.Clusters, 2)
	total := 0
	for _, c := range res.Clusters {
		total += c.Size
		assert.NotEmpty(t, c.TopTerms)
		assert.LessOrEqual(t, len(c.TopTerms), topTermsPerCluster)
	}
	assert.Equal(t, len(twoTopics), total)
	assert.Contains(t, res.Clusters[0].TopTerms, "boat")

	res = Analyze([]string{"one"}, 3)
	assert.Equal(t, []Summary{{ID: 0, Size: 1}}, res.Clusters)
}

func TestPreprocess(t *testing.T) {
	assert.Equal(t, "hello world  caf", Preprocess("Hello, World 42! Café"))
}

func TestFitTransform(t *testing.T) {
	v := NewVectorizer()
	m := v.FitTransform([]string{"Red red blue", "blue green", "the"})

	assert.Equal(t, []string{"blue", "green", "red"}, m.Vocabulary)
	require.Len(t, m.Rows, 3)
	for _, row := range m.Rows[:2] {
		var norm float64
		for _, x := range row {
			norm += x * x
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
	}
	assert.Equal(t, []float64{0, 0, 0}, m.Rows[2])

	v.MaxFeatures = 1
	m = v.FitTransform([]string{"Red red blue", "blue green", "blue"})
	assert.Equal(t, []string{"blue"}, m.Vocabulary)
}

func TestSimilar(t *testing.T) {
	matches := Similar(twoTopics, 0, 2)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Contains(t, []int{1, 2}, m.Index)
		assert.Greater(t, m.Score, 0.0)
	}
	assert.Nil(t, Similar(twoTopics, 10, 2))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}

func TestSummaries(t *testing.T) {
	ids := []int{0, 0, 0, 1, 1, 1}
	sums := Summaries(ids, twoTopics)
	require.Len(t, sums, 2)
	assert.Equal(t, 3, sums[0].Size)
	assert.Contains(t, sums[0].TopTerms, "ocean")
	assert.Contains(t, sums[1].TopTerms, "exam")

	assert.Nil(t, Summaries([]int{0}, twoTopics))
}
