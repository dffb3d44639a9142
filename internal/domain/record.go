package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Issue describes a stored record that was only partially readable
type Issue struct {
	Index int
	Field string
	Err   error
}

func (i Issue) Error() string {
	return fmt.Sprintf("record %d: %s: %v", i.Index, i.Field, i.Err)
}

// record is the lenient on-disk shape of an Entry
type record struct {
	ID        string          `json:"id"`
	Date      json.RawMessage `json:"date"`
	Text      string          `json:"dream"`
	MoodScore *float64        `json:"mood_score"`
	MoodLabel string          `json:"mood_label"`
	Type      string          `json:"type"`
	Topics    []string        `json:"topics"`
	Detail    json.RawMessage `json:"mood_detail"`
}

// DecodeEntries parses a stored collection. Records with an unreadable date or
// emotion detail are kept: the date becomes unknown and the emotion vector
// becomes all-zero, and each substitution is reported as an Issue.
func DecodeEntries(data []byte) ([]Entry, []Issue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Entry{}, nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(nullNonFinite(data), &raw); err != nil {
		return nil, nil, fmt.Errorf("decode entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	var issues []Issue
	for i, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, issues, fmt.Errorf("decode record %d: %w", i, err)
		}
		entry, recIssues := rec.toEntry(i)
		issues = append(issues, recIssues...)
		entries = append(entries, entry)
	}

	return entries, issues, nil
}

// DecodeEntry parses a single stored record with the same leniency as DecodeEntries
func DecodeEntry(data []byte) (Entry, []Issue, error) {
	var rec record
	if err := json.Unmarshal(nullNonFinite(data), &rec); err != nil {
		return Entry{}, nil, fmt.Errorf("decode record: %w", err)
	}
	entry, issues := rec.toEntry(0)
	return entry, issues, nil
}

// nonFinite are the bare float tokens some JSON writers emit for NaN and the infinities
var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// nullNonFinite rewrites bare NaN, Infinity and -Infinity tokens outside string
// literals to null. Data without them is returned as is.
func nullNonFinite(data []byte) []byte {
	var out []byte
	inString, escaped := false, false
	last := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c != 'N' && c != 'I' && c != '-' {
			continue
		}
		for _, tok := range nonFinite {
			if bytes.HasPrefix(data[i:], tok) {
				out = append(out, data[last:i]...)
				out = append(out, "null"...)
				i += len(tok) - 1
				last = i + 1
				break
			}
		}
	}
	if out == nil {
		return data
	}
	return append(out, data[last:]...)
}

func (r record) toEntry(index int) (Entry, []Issue) {
	var issues []Issue

	e := Entry{
		ID:        r.ID,
		Text:      r.Text,
		MoodLabel: r.MoodLabel,
		Topics:    r.Topics,
	}
	if e.Topics == nil {
		e.Topics = []string{}
	}
	if r.MoodScore != nil {
		e.MoodScore = *r.MoodScore
	}

	if len(r.Date) > 0 {
		if err := e.Date.UnmarshalJSON(r.Date); err != nil {
			issues = append(issues, Issue{Index: index, Field: "date", Err: err})
		}
	}

	if r.Type != "" {
		cat, ok := ParseCategory(r.Type)
		if !ok {
			issues = append(issues, Issue{Index: index, Field: "type", Err: fmt.Errorf("unknown category %q", r.Type)})
		}
		e.Category = cat
	} else {
		e.Category = Other
	}

	vec, err := ParseEmotionDetail(r.Detail)
	if err != nil {
		issues = append(issues, Issue{Index: index, Field: "mood_detail", Err: err})
	}
	e.Emotions = vec

	return e, issues
}

// ParseEmotionDetail reads an emotion mapping stored either as an object or as a
// string holding JSON (single-quoted keys are accepted). Missing emotions are zero.
// On error the returned vector is all-zero.
func ParseEmotionDetail(raw json.RawMessage) (EmotionVector, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NewEmotionVector(), nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return NewEmotionVector(), fmt.Errorf("decode mood_detail string: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return NewEmotionVector(), nil
		}
		raw = json.RawMessage(strings.ReplaceAll(s, "'", `"`))
	}

	var m map[string]*float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return NewEmotionVector(), fmt.Errorf("decode mood_detail: %w", err)
	}

	vec := NewEmotionVector()
	for _, e := range Emotions {
		if v := m[string(e)]; v != nil {
			vec[e] = *v
		}
	}
	return vec, nil
}

// EncodeEntries renders a collection in the stored record format
func EncodeEntries(entries []Entry) ([]byte, error) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Normalize(e)
	}
	b, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return b, nil
}

// Normalize fills defaulted fields so the entry serializes in canonical form
func Normalize(e Entry) Entry {
	if e.Topics == nil {
		e.Topics = []string{}
	}
	e.Emotions = e.Emotions.Complete()
	if e.Category == "" {
		e.Category = Other
	}
	return e
}
