package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/journal"
	"github.com/pbaille/dreamlog/internal/trend"
)

const barWidth = 20

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func displayDate(s string) string {
	if s == "" {
		return "unknown   "
	}
	return s
}

func bar(v, max float64) string {
	if max <= 0 || v <= 0 {
		return ""
	}
	n := int(math.Round(v / max * barWidth))
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n)
}

func printEntryLine(out io.Writer, e domain.Entry) {
	fmt.Fprintf(out, "%-8s  %s  %-18s  %-8s %+.2f  %s\n",
		shortID(e.ID),
		displayDate(e.Date.String()),
		e.Category.Display(),
		e.MoodLabel,
		e.MoodScore,
		truncate(e.Text, 50),
	)
}

func printEmotions(out io.Writer, vec domain.EmotionVector) {
	for _, em := range domain.Emotions {
		fmt.Fprintf(out, "  %-9s %.2f %s\n", em.Title(), vec[em], bar(vec[em], 1))
	}
}

func printAlert(out io.Writer, a trend.Alert) {
	if !a.Triggered {
		return
	}
	fmt.Fprintf(out, "\n⚠️  Your mood has been trending down: %+.2f this week vs %+.2f last week.\n", a.ThisWeek, a.LastWeek)
}

func printReport(out io.Writer, r journal.Report) {
	fmt.Fprintf(out, "Dreams logged: %d\n", r.Total)
	for _, c := range []domain.Category{domain.Nightmare, domain.Symbolic, domain.Social, domain.Other} {
		if n := r.Categories[c]; n > 0 {
			fmt.Fprintf(out, "  %-20s %d\n", c.Display(), n)
		}
	}

	fmt.Fprintln(out, "\nWeekly mood")
	switch {
	case !r.Alert.Sufficient:
		fmt.Fprintf(out, "  Not enough dreams to compare weeks (%d this week, %d last week, need %d each).\n",
			r.Alert.ThisCount, r.Alert.LastCount, trend.MinEntriesPerWeek)
	case r.Alert.Triggered:
		fmt.Fprintf(out, "  ⚠️  Trending down: %+.2f this week vs %+.2f last week.\n", r.Alert.ThisWeek, r.Alert.LastWeek)
	default:
		fmt.Fprintf(out, "  Steady: %+.2f this week vs %+.2f last week.\n", r.Alert.ThisWeek, r.Alert.LastWeek)
	}

	if len(r.Profile) > 0 {
		fmt.Fprintf(out, "\nEmotion profile, last %d days\n", r.ProfileDays)
		printEmotions(out, r.Profile)
	}

	if len(r.Mood) > 0 {
		fmt.Fprintln(out, "\nMood by day")
		for _, p := range r.Mood {
			fmt.Fprintf(out, "  %s  %+.2f  (%d)\n", p.Date, p.Score, p.Count)
		}
	}

	if len(r.Heatmap) > 0 {
		printHeatmap(out, r.Heatmap)
	}
}

// printHeatmap draws one row per emotion and one column per day
func printHeatmap(out io.Writer, cells []trend.HeatCell) {
	shades := []rune(" ░▒▓█")

	var max float64
	for _, c := range cells {
		for _, em := range domain.Emotions {
			max = math.Max(max, c.Emotions[em])
		}
	}

	fmt.Fprintf(out, "\nEmotion heatmap %s to %s\n", cells[0].Date, cells[len(cells)-1].Date)
	for _, em := range domain.Emotions {
		var sb strings.Builder
		for _, c := range cells {
			level := 0
			if max > 0 {
				level = int(math.Round(c.Emotions[em] / max * float64(len(shades)-1)))
			}
			sb.WriteRune(shades[level])
		}
		fmt.Fprintf(out, "  %-9s |%s|\n", em.Title(), sb.String())
	}
}
