package journal

import (
	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/trend"
)

// Report gathers every trend view the presentation layer draws
type Report struct {
	Today       domain.Date             `json:"today"`
	Total       int                     `json:"total"`
	Alert       trend.Alert             `json:"alert"`
	Daily       []trend.DailyPoint      `json:"daily"`
	Mood        []trend.MoodPoint       `json:"mood"`
	Profile     domain.EmotionVector    `json:"profile,omitempty"`
	ProfileDays int                     `json:"profile_days"`
	Heatmap     []trend.HeatCell        `json:"heatmap,omitempty"`
	Categories  map[domain.Category]int `json:"categories"`
}

// ReportOptions sizes the trailing windows
type ReportOptions struct {
	ProfileDays int
	HeatmapDays int
}

// Trends builds the report for the journal's current day
func (j *Journal) Trends(opts ReportOptions) (Report, error) {
	entries, err := j.Entries()
	if err != nil {
		return Report{}, err
	}
	return BuildReport(entries, j.Today(), j.margin, opts), nil
}

// BuildReport computes every trend view over entries
func BuildReport(entries []domain.Entry, today domain.Date, margin float64, opts ReportOptions) Report {
	if opts.ProfileDays <= 0 {
		opts.ProfileDays = 7
	}
	if opts.HeatmapDays <= 0 {
		opts.HeatmapDays = 30
	}

	r := Report{
		Today:       today,
		Total:       len(entries),
		Alert:       trend.NegativeTrendWithMargin(entries, today, margin),
		Daily:       trend.Daily(entries),
		Mood:        trend.MoodSeries(entries),
		ProfileDays: opts.ProfileDays,
		Heatmap:     trend.Heatmap(entries, today, opts.HeatmapDays),
		Categories:  make(map[domain.Category]int),
	}
	if profile, ok := trend.Window(entries, today, opts.ProfileDays); ok {
		r.Profile = profile
	}
	for _, e := range entries {
		r.Categories[e.Category]++
	}
	return r
}
