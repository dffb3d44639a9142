package journal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/store"
)

var fixedNow = time.Date(2024, time.July, 15, 8, 30, 0, 0, time.UTC)

func newJournal(t *testing.T) (*Journal, store.Repository) {
	t.Helper()
	repo := store.NewJSONStore(filepath.Join(t.TempDir(), "dreams.json"), zaptest.NewLogger(t))
	j := New(repo,
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	)
	return j, repo
}

func TestRecord_AnalyzesAndStores(t *testing.T) {
	j, repo := newJournal(t)

	res, err := j.Record("I was being chased by a monster near the sea")
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.NotEmpty(t, res.Entry.ID)
	assert.Equal(t, domain.NewDate(2024, time.July, 15), res.Entry.Date)
	assert.Equal(t, domain.Nightmare, res.Entry.Category)
	assert.Equal(t, "Fear", res.Entry.MoodLabel)
	assert.Less(t, res.Entry.MoodScore, 0.0)
	assert.Equal(t, []string{"chase", "monster"}, res.Analysis.Keywords)
	assert.False(t, res.Alert.Sufficient)

	stored, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Entry.ID, stored[0].ID)
	assert.Equal(t, res.Entry.Emotions, stored[0].Emotions)
}

func TestRecord_RejectsBlankText(t *testing.T) {
	j, repo := newJournal(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := j.Record(text)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	stored, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRecord_DuplicateSameDay(t *testing.T) {
	j, repo := newJournal(t)

	first, err := j.Record("I met an old friend at a party")
	require.NoError(t, err)
	second, err := j.Record("I met an old friend at a party")
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)

	stored, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	// Same text on another day is a new entry
	j.now = func() time.Time { return fixedNow.AddDate(0, 0, 1) }
	third, err := j.Record("I met an old friend at a party")
	require.NoError(t, err)
	assert.False(t, third.Duplicate)
	stored, err = repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRecord_ConcurrentDuplicatesStoreOnce(t *testing.T) {
	j, repo := newJournal(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := j.Record("a strange sky full of colors")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecord_RaisesNegativeTrendAlert(t *testing.T) {
	j, repo := newJournal(t)
	today := domain.DateOf(fixedNow)

	var seed []domain.Entry
	for i, score := range []float64{0.7, 0.7, 0.7} {
		seed = append(seed, domain.Entry{ID: "last" + string(rune('a'+i)), Date: today.AddDays(-9 - i), Text: "old", MoodScore: score})
	}
	for i, score := range []float64{-0.5, -0.5} {
		seed = append(seed, domain.Entry{ID: "this" + string(rune('a'+i)), Date: today.AddDays(-1 - i), Text: "new", MoodScore: score})
	}
	require.NoError(t, repo.SaveAll(seed))

	res, err := j.Record("Darkness and terror, a monster attacked")
	require.NoError(t, err)
	assert.True(t, res.Alert.Sufficient)
	assert.True(t, res.Alert.Triggered)
}

func TestEntries_AssignsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreams.json")
	legacy := `[{"date": "2024-07-01", "dream": "flying", "mood_score": 0, "mood_label": "Neutral", "type": "Symbolic 🌈", "topics": [], "mood_detail": {}}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	repo := store.NewJSONStore(path, nil)
	j := New(repo)

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotEmpty(t, entries[0].ID)

	again, err := j.Entries()
	require.NoError(t, err)
	assert.Equal(t, entries[0].ID, again[0].ID, "derived ids are stable across reads")

	got, err := j.Get(entries[0].ID[:8])
	require.NoError(t, err)
	assert.Equal(t, "flying", got.Text)
}

func TestReadsLeaveLegacyFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreams.json")
	legacy := []byte(`[{"date": "2024-07-01", "dream": "flying", "mood_score": 0.4, "mood_label": "Positive", "type": "Symbolic 🌈", "topics": [], "mood_detail": "{{corrupt"}]`)
	require.NoError(t, os.WriteFile(path, legacy, 0o644))

	j := New(store.NewJSONStore(path, zaptest.NewLogger(t)),
		WithLogger(zaptest.NewLogger(t)),
		WithClock(func() time.Time { return fixedNow }),
	)

	entries, err := j.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 0.4, entries[0].MoodScore, 1e-9)

	_, err = j.Get(entries[0].ID)
	require.NoError(t, err)
	_, err = j.Trends(ReportOptions{ProfileDays: 7, HeatmapDays: 14})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(legacy), string(after))

	// the first mutation persists the derived id
	_, err = j.Edit(entries[0].ID, "flying over the sea")
	require.NoError(t, err)
	stored, err := j.Entries()
	require.NoError(t, err)
	assert.Equal(t, entries[0].ID, stored[0].ID)
	after, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(after), entries[0].ID)
}

func TestNewValidator_NotBlank(t *testing.T) {
	var v *validator.Validate
	require.NotPanics(t, func() { v = newValidator() })

	assert.Error(t, v.Var("  \n\t", "notblank"))
	assert.Error(t, v.Struct(submission{Text: ""}))
	assert.NoError(t, v.Var("x", "notblank"))
	assert.NoError(t, v.Struct(submission{Text: " a dream "}))
}

func TestEditDeleteGet(t *testing.T) {
	j, repo := newJournal(t)
	require.NoError(t, repo.SaveAll([]domain.Entry{
		{ID: "aaa111", Date: domain.DateOf(fixedNow), Text: "a quiet walk", Category: domain.Other},
		{ID: "aab222", Date: domain.DateOf(fixedNow), Text: "a party with family", Category: domain.Social},
	}))

	_, err := j.Get("aa")
	assert.ErrorIs(t, err, ErrAmbiguousID)
	_, err = j.Get("zzz")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = j.Get("")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := j.Get("aab")
	require.NoError(t, err)
	assert.Equal(t, "a party with family", got.Text)

	edited, err := j.Edit("aaa", "a dark forest and a monster")
	require.NoError(t, err)
	assert.Equal(t, "aaa111", edited.ID)
	assert.Equal(t, domain.Nightmare, edited.Category)
	assert.Equal(t, "Fear", edited.MoodLabel)

	_, err = j.Edit("aaa", "  ")
	assert.ErrorIs(t, err, ErrEmptyText)

	removed, err := j.Delete("aab")
	require.NoError(t, err)
	assert.Equal(t, "aab222", removed.ID)

	stored, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "a dark forest and a monster", stored[0].Text)

	require.NoError(t, j.Clear())
	stored, err = repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestClustersAndSimilar(t *testing.T) {
	j, repo := newJournal(t)
	texts := []string{
		"Sailing a boat on the ocean",
		"Ocean waves rocked the boat",
		"Taking an exam at school",
		"My teacher gave me an exam at school",
	}
	var seed []domain.Entry
	for i, text := range texts {
		seed = append(seed, domain.Entry{ID: string(rune('a' + i)), Date: domain.DateOf(fixedNow), Text: text})
	}
	require.NoError(t, repo.SaveAll(seed))

	entries, res, err := j.Clusters(2)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, entries[0].ClusterID, entries[1].ClusterID)
	assert.Equal(t, entries[2].ClusterID, entries[3].ClusterID)
	assert.NotEqual(t, entries[0].ClusterID, entries[2].ClusterID)
	assert.Len(t, res.Clusters, 2)

	entries, _, err = j.Clusters(8)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, 0, e.ClusterID)
	}

	ref, similar, err := j.Similar("c", 3)
	require.NoError(t, err)
	assert.Equal(t, "c", ref.ID)
	require.Len(t, similar, 1)
	assert.Equal(t, "d", similar[0].ID)
}

func TestSearchAndHighlight(t *testing.T) {
	entries := []domain.Entry{
		{ID: "1", Text: "A Dark forest"},
		{ID: "2", Text: "sunny beach"},
		{ID: "3", Text: "the darkness returned"},
	}
	found := Search(entries, "dark")
	require.Len(t, found, 2)
	assert.Equal(t, "1", found[0].ID)
	assert.Equal(t, "3", found[1].ID)
	assert.Empty(t, Search(entries, "  "))

	assert.Equal(t, "A **[Dark]** **[forest]**", Highlight("A Dark forest", strings.Fields("dark forest")))
	assert.Equal(t, "cost: 1+1", Highlight("cost: 1+1", []string{"2+2"}))
	assert.Equal(t, "**[1+1]**", Highlight("1+1", []string{"1+1"}))
}

func TestInterpret(t *testing.T) {
	calm := Interpret(Analysis{Emotions: domain.NewEmotionVector(), MoodLabel: "Neutral", Category: domain.Other})
	assert.Contains(t, calm, "dominant feeling of Neutral")
	assert.Contains(t, calm, "calm and neutral")

	vivid := Interpret(Analysis{
		Emotions:  domain.EmotionVector{domain.Joy: 0.6, domain.Fear: 0.35},
		MoodLabel: "Joy",
		Category:  domain.Symbolic,
	})
	assert.Contains(t, vivid, "Joy runs through")
	assert.Contains(t, vivid, "Fear surfaces")
	assert.NotContains(t, vivid, "calm and neutral")
	assert.NotContains(t, vivid, "Anger sits")
}

func TestTrends(t *testing.T) {
	j, repo := newJournal(t)
	today := domain.DateOf(fixedNow)
	require.NoError(t, repo.SaveAll([]domain.Entry{
		{ID: "1", Date: today, Text: "x", Category: domain.Nightmare, Emotions: domain.EmotionVector{domain.Fear: 1}},
		{ID: "2", Date: today.AddDays(-2), Text: "y", Category: domain.Other, Emotions: domain.EmotionVector{domain.Joy: 1}},
	}))

	r, err := j.Trends(ReportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Total)
	assert.Len(t, r.Daily, 2)
	assert.Len(t, r.Heatmap, 3)
	assert.Equal(t, 7, r.ProfileDays)
	assert.InDelta(t, 0.5, r.Profile[domain.Fear], 1e-9)
	assert.Equal(t, 1, r.Categories[domain.Nightmare])
	assert.False(t, r.Alert.Sufficient)
}

func TestErrorsWrapSentinels(t *testing.T) {
	_, err := find(nil, "abc")
	assert.True(t, errors.Is(err, ErrNotFound))
}
