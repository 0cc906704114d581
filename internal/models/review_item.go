package models

import "time"

// Error categories recorded against review items.
const (
	ErrorTypeGrammar       = "Grammar"
	ErrorTypePronunciation = "Pronunciation"
	ErrorTypeVocabulary    = "Vocabulary"
	ErrorTypeCultural      = "Cultural"
)

// DefaultSeverity is assumed when a review item carries no usable severity.
const DefaultSeverity = 5

// SignificantSeverity is the floor above which a struggle counts as
// significant for cross-level detection.
const SignificantSeverity = 7

// ReviewItem is one recorded learner mistake, owned by a user document.
type ReviewItem struct {
	ID                string
	UserID            string
	MissionID         string
	ErrorType         string
	Severity          int
	UserSentence      string
	Correction        string
	Explanation       string
	Mastered          bool
	ReviewCount       int
	LastReviewedAt    *time.Time
	AudioURL          string
	CreatedAt         time.Time
	IncludedInReviews []string
}

// DisplayText prefers the correction over the raw sentence and truncates to
// limit runes. Zero limit means no truncation.
func (r ReviewItem) DisplayText(limit int) string {
	text := r.Correction
	if text == "" {
		text = r.UserSentence
	}
	return Truncate(text, limit)
}

// SeverityBucket maps a numeric severity onto the coarse label used in
// teacher-facing views.
func SeverityBucket(avg float64) string {
	switch {
	case avg >= 7:
		return "high"
	case avg >= 4:
		return "medium"
	default:
		return "low"
	}
}

// Truncate cuts s to at most limit runes. Zero or negative limit is a no-op.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
