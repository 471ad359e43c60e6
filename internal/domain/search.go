package domain

import (
	"fmt"
	"sort"
)

// Mode selects which feature index a query runs against.
type Mode string

const (
	// ModeVision searches visual content (frames, objects, scenes).
	ModeVision Mode = "vision"
	// ModeSpeech searches transcribed speech.
	ModeSpeech Mode = "speech"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeVision, ModeSpeech:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// FeatureFilter returns the single feature filter tag for the mode.
// A query carries exactly one tag, never both.
func (m Mode) FeatureFilter() string {
	return string(m)
}

// Query is an immutable search request. Empty text is allowed and forwarded
// unchanged; the remote index owns that semantic.
type Query struct {
	Text string
	Mode Mode
}

// NewQuery builds a query for the given text and mode.
func NewQuery(text string, mode Mode) Query {
	return Query{Text: text, Mode: mode}
}

// Match is one ranked hit from the video index. Start, End and Best are
// timecodes in HH:MM:SS.fraction form; Best marks the most relevant instant
// inside [Start, End] and is used as the playback seek point.
type Match struct {
	DocumentID   string  `json:"documentId"`
	DocumentKind string  `json:"documentKind"`
	Relevance    float64 `json:"relevance"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Best         string  `json:"best"`
}

// SortByRelevance orders matches by relevance descending, in place.
// The sort is stable: ties keep arrival order.
func SortByRelevance(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Relevance > matches[j].Relevance
	})
}

// Selection is the single video chosen from the current result set.
type Selection struct {
	DocumentID   string `json:"documentId"`
	DocumentKind string `json:"documentKind"`
	BestTime     string `json:"bestTime"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

// SelectionFromMatch derives a selection from exactly one match.
func SelectionFromMatch(m Match) Selection {
	return Selection{
		DocumentID:   m.DocumentID,
		DocumentKind: m.DocumentKind,
		BestTime:     m.Best,
		StartTime:    m.Start,
		EndTime:      m.End,
	}
}
