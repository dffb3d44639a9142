package journal

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pbaille/dreamlog/internal/cluster"
	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/store"
	"github.com/pbaille/dreamlog/internal/trend"
)

var (
	// ErrNotFound is returned when no entry matches an id prefix
	ErrNotFound = errors.New("entry not found")
	// ErrAmbiguousID is returned when an id prefix matches several entries
	ErrAmbiguousID = errors.New("id prefix matches more than one entry")
)

// Journal owns the load, mutate, save cycle over a repository. Mutations are
// serialized so concurrent callers never interleave a load and a save.
type Journal struct {
	repo     store.Repository
	analyzer *Analyzer
	logger   *zap.Logger
	now      func() time.Time
	margin   float64

	mu sync.Mutex
}

// Option configures a Journal
type Option func(*Journal)

// WithAnalyzer sets the per-entry pipeline
func WithAnalyzer(a *Analyzer) Option {
	return func(j *Journal) { j.analyzer = a }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithAlertMargin sets how far this week must fall below last week to alert
func WithAlertMargin(m float64) Option {
	return func(j *Journal) { j.margin = m }
}

// New creates a Journal over repo
func New(repo store.Repository, opts ...Option) *Journal {
	j := &Journal{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
		margin: trend.DefaultAlertMargin,
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.analyzer == nil {
		j.analyzer = NewAnalyzer(nil)
	}
	return j
}

// Today returns the journal's current calendar day
func (j *Journal) Today() domain.Date {
	return domain.DateOf(j.now())
}

// Analyzer returns the per-entry pipeline
func (j *Journal) Analyzer() *Analyzer {
	return j.analyzer
}

// Entries loads the collection. Entries stored without an id get one derived
// from their position and content, so ids are stable across reads without
// rewriting the store. The ids are persisted by the next mutation.
func (j *Journal) Entries() ([]domain.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load()
}

func (j *Journal) load() ([]domain.Entry, error) {
	entries, err := j.repo.LoadAll()
	if err != nil {
		return nil, err
	}

	assigned := 0
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = derivedID(i, entries[i])
			assigned++
		}
	}
	if assigned > 0 {
		j.logger.Debug("Derived ids for stored entries", zap.Int("count", assigned))
	}
	return entries, nil
}

// derivedID names an entry that was stored without an id
func derivedID(index int, e domain.Entry) string {
	name := fmt.Sprintf("%d|%s|%s", index, e.Date, e.Text)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// Result is the outcome of recording a dream
type Result struct {
	Entry     domain.Entry `json:"entry"`
	Analysis  Analysis     `json:"analysis"`
	Duplicate bool         `json:"duplicate"`
	Alert     trend.Alert  `json:"alert"`
}

// Record analyzes text and appends it as today's entry. The same text on the
// same day is not stored twice; Result.Duplicate reports that case.
func (j *Journal) Record(text string) (Result, error) {
	analysis, err := j.analyzer.Analyze(text)
	if err != nil {
		return Result{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load()
	if err != nil {
		return Result{}, err
	}

	today := j.Today()
	for _, e := range entries {
		if e.Date == today && e.Text == text {
			j.logger.Info("Dream already logged today", zap.String("id", e.ID))
			return Result{
				Entry:     e,
				Analysis:  analysis,
				Duplicate: true,
				Alert:     trend.NegativeTrendWithMargin(entries, today, j.margin),
			}, nil
		}
	}

	entry := domain.Entry{
		ID:     uuid.New().String(),
		Date:   today,
		Text:   text,
		Topics: []string{},
	}
	analysis.apply(&entry)

	entries = append(entries, entry)
	if err := j.repo.SaveAll(entries); err != nil {
		return Result{}, fmt.Errorf("save dream: %w", err)
	}
	j.logger.Debug("Recorded dream",
		zap.String("id", entry.ID),
		zap.String("category", string(entry.Category)),
		zap.Float64("mood_score", entry.MoodScore),
	)

	return Result{
		Entry:    entry,
		Analysis: analysis,
		Alert:    trend.NegativeTrendWithMargin(entries, today, j.margin),
	}, nil
}

// Get returns the entry whose id starts with prefix
func (j *Journal) Get(prefix string) (domain.Entry, error) {
	entries, err := j.Entries()
	if err != nil {
		return domain.Entry{}, err
	}
	i, err := find(entries, prefix)
	if err != nil {
		return domain.Entry{}, err
	}
	return entries[i], nil
}

// Edit replaces an entry's text and re-runs the analysis for it. The date is kept.
func (j *Journal) Edit(prefix, text string) (domain.Entry, error) {
	analysis, err := j.analyzer.Analyze(text)
	if err != nil {
		return domain.Entry{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load()
	if err != nil {
		return domain.Entry{}, err
	}
	i, err := find(entries, prefix)
	if err != nil {
		return domain.Entry{}, err
	}

	entries[i].Text = text
	analysis.apply(&entries[i])
	if err := j.repo.SaveAll(entries); err != nil {
		return domain.Entry{}, fmt.Errorf("save edit: %w", err)
	}
	return entries[i], nil
}

// Delete removes the entry whose id starts with prefix and returns it
func (j *Journal) Delete(prefix string) (domain.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load()
	if err != nil {
		return domain.Entry{}, err
	}
	i, err := find(entries, prefix)
	if err != nil {
		return domain.Entry{}, err
	}

	removed := entries[i]
	entries = append(entries[:i], entries[i+1:]...)
	if err := j.repo.SaveAll(entries); err != nil {
		return domain.Entry{}, fmt.Errorf("save delete: %w", err)
	}
	return removed, nil
}

// Clear removes every entry
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.repo.Clear()
}

// Clusters groups every entry's text into k topics and returns the entries
// with ClusterID set, in stored order
func (j *Journal) Clusters(k int) ([]domain.Entry, cluster.Result, error) {
	entries, err := j.Entries()
	if err != nil {
		return nil, cluster.Result{}, err
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	res := cluster.Analyze(texts, k)
	for i := range entries {
		entries[i].ClusterID = res.Assignments[i]
	}
	return entries, res, nil
}

// Similar returns up to n entries whose wording is closest to the entry
// matching prefix, most similar first
func (j *Journal) Similar(prefix string, n int) (domain.Entry, []domain.Entry, error) {
	entries, err := j.Entries()
	if err != nil {
		return domain.Entry{}, nil, err
	}
	ref, err := find(entries, prefix)
	if err != nil {
		return domain.Entry{}, nil, err
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	var out []domain.Entry
	for _, m := range cluster.Similar(texts, ref, n) {
		out = append(out, entries[m.Index])
	}
	return entries[ref], out, nil
}

func find(entries []domain.Entry, prefix string) (int, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return -1, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	found := -1
	for i, e := range entries {
		if e.ID == prefix {
			return i, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			if found >= 0 {
				return -1, fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return found, nil
}
