// Package trend computes mood aggregates over a journal: the week-over-week
// decline alert, per-day emotion means and trailing-window profiles.
package trend

import (
	"sort"

	"github.com/pbaille/dreamlog/internal/domain"
)

const (
	// DefaultAlertMargin keeps small week-to-week wobbles from raising an alert
	DefaultAlertMargin = 0.1
	// MinEntriesPerWeek is the smallest sample each week needs before comparing
	MinEntriesPerWeek = 3
)

// Alert is the result of comparing this week's mood with last week's
type Alert struct {
	Sufficient bool    `json:"sufficient"`
	Triggered  bool    `json:"triggered"`
	ThisWeek   float64 `json:"this_week"`
	LastWeek   float64 `json:"last_week"`
	ThisCount  int     `json:"this_count"`
	LastCount  int     `json:"last_count"`
}

// NegativeTrend compares the mean mood score of the last 7 days with the 7 days
// before, using the default margin
func NegativeTrend(entries []domain.Entry, today domain.Date) Alert {
	return NegativeTrendWithMargin(entries, today, DefaultAlertMargin)
}

// NegativeTrendWithMargin is NegativeTrend with a caller-chosen margin. This
// week is date >= today-7; last week is today-14 <= date < today-7.
func NegativeTrendWithMargin(entries []domain.Entry, today domain.Date, margin float64) Alert {
	weekAgo := today.AddDays(-7)
	twoWeeksAgo := today.AddDays(-14)

	var a Alert
	var thisSum, lastSum float64
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		switch {
		case !e.Date.Before(weekAgo):
			a.ThisCount++
			thisSum += e.MoodScore
		case !e.Date.Before(twoWeeksAgo):
			a.LastCount++
			lastSum += e.MoodScore
		}
	}

	if a.ThisCount > 0 {
		a.ThisWeek = thisSum / float64(a.ThisCount)
	}
	if a.LastCount > 0 {
		a.LastWeek = lastSum / float64(a.LastCount)
	}
	if a.ThisCount < MinEntriesPerWeek || a.LastCount < MinEntriesPerWeek {
		return a
	}

	a.Sufficient = true
	a.Triggered = a.ThisWeek < a.LastWeek-margin
	return a
}

// DailyPoint is the mean emotion vector of all entries on one date
type DailyPoint struct {
	Date     domain.Date          `json:"date"`
	Count    int                  `json:"count"`
	Emotions domain.EmotionVector `json:"emotions"`
}

// Daily returns one point per distinct known date, ascending. Dates without
// entries are absent.
func Daily(entries []domain.Entry) []DailyPoint {
	groups := groupByDate(entries)

	points := make([]DailyPoint, 0, len(groups))
	for d, group := range groups {
		points = append(points, DailyPoint{
			Date:     d,
			Count:    len(group),
			Emotions: meanVector(group),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// Window returns the mean emotion vector over entries dated on or after
// today-days. ok is false when the window holds no entries.
func Window(entries []domain.Entry, today domain.Date, days int) (domain.EmotionVector, bool) {
	in := since(entries, today.AddDays(-days))
	if len(in) == 0 {
		return domain.NewEmotionVector(), false
	}
	return meanVector(in), true
}

// HeatCell is the summed intensity of every emotion on one day
type HeatCell struct {
	Date     domain.Date          `json:"date"`
	Emotions domain.EmotionVector `json:"emotions"`
}

// Heatmap sums emotion intensities per day over entries dated on or after
// today-days. Days between the first and last such entry with no entries are
// present with zero intensity.
func Heatmap(entries []domain.Entry, today domain.Date, days int) []HeatCell {
	in := since(entries, today.AddDays(-days))
	if len(in) == 0 {
		return nil
	}

	first, last := in[0].Date, in[0].Date
	sums := make(map[domain.Date]domain.EmotionVector)
	for _, e := range in {
		if e.Date.Before(first) {
			first = e.Date
		}
		if e.Date.After(last) {
			last = e.Date
		}
		v, ok := sums[e.Date]
		if !ok {
			v = domain.NewEmotionVector()
			sums[e.Date] = v
		}
		for _, em := range domain.Emotions {
			v[em] += e.Emotions[em]
		}
	}

	var cells []HeatCell
	for d := first; !d.After(last); d = d.AddDays(1) {
		v, ok := sums[d]
		if !ok {
			v = domain.NewEmotionVector()
		}
		cells = append(cells, HeatCell{Date: d, Emotions: v})
	}
	return cells
}

// MoodPoint is the mean mood score of one date
type MoodPoint struct {
	Date  domain.Date `json:"date"`
	Count int         `json:"count"`
	Score float64     `json:"score"`
}

// MoodSeries returns the mean mood score per distinct known date, ascending
func MoodSeries(entries []domain.Entry) []MoodPoint {
	groups := groupByDate(entries)

	points := make([]MoodPoint, 0, len(groups))
	for d, group := range groups {
		var sum float64
		for _, e := range group {
			sum += e.MoodScore
		}
		points = append(points, MoodPoint{Date: d, Count: len(group), Score: sum / float64(len(group))})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func groupByDate(entries []domain.Entry) map[domain.Date][]domain.Entry {
	groups := make(map[domain.Date][]domain.Entry)
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		groups[e.Date] = append(groups[e.Date], e)
	}
	return groups
}

func since(entries []domain.Entry, from domain.Date) []domain.Entry {
	var out []domain.Entry
	for _, e := range entries {
		if e.Date.IsZero() || e.Date.Before(from) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// meanVector averages each emotion; missing components count as zero
func meanVector(entries []domain.Entry) domain.EmotionVector {
	out := domain.NewEmotionVector()
	if len(entries) == 0 {
		return out
	}
	for _, e := range entries {
		for _, em := range domain.Emotions {
			out[em] += e.Emotions[em]
		}
	}
	for _, em := range domain.Emotions {
		out[em] /= float64(len(entries))
	}
	return out
}
