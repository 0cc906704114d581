package repository

import (
	"strconv"
	"time"

	"github.com/ndtutor/tutor-api/internal/models"
)

// Document maps come back loosely typed; these helpers pin down the shapes
// the aggregation layer relies on, applying defaults exactly once here.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v interface{}) *time.Time {
	if t, ok := v.(time.Time); ok {
		utc := t.UTC()
		return &utc
	}
	return nil
}

// asSeverity coerces the 1-10 severity field. Legacy documents carry it as a
// string; unparseable values fall back to the default.
func asSeverity(v interface{}) int {
	switch n := v.(type) {
	case int:
		if n != 0 {
			return n
		}
	case int64:
		if n != 0 {
			return int(n)
		}
	case float64:
		if n != 0 {
			return int(n)
		}
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return models.DefaultSeverity
}

// decodeReviewItem normalizes one reviewItems document.
func decodeReviewItem(id, userID string, data map[string]interface{}) models.ReviewItem {
	item := models.ReviewItem{
		ID:             id,
		UserID:         userID,
		MissionID:      asString(data["missionId"]),
		ErrorType:      asString(data["errorType"]),
		Severity:       asSeverity(data["severity"]),
		UserSentence:   asString(data["userSentence"]),
		Correction:     asString(data["correction"]),
		Explanation:    asString(data["explanation"]),
		Mastered:       asBool(data["mastered"]),
		ReviewCount:    asInt(data["reviewCount"]),
		LastReviewedAt: asTime(data["lastReviewedAt"]),
		AudioURL:       asString(data["audioUrl"]),
	}
	if item.ErrorType == "" {
		item.ErrorType = models.ErrorTypeVocabulary
	}
	if item.Correction == "" {
		// Oldest documents store the corrected text under "word".
		item.Correction = asString(data["word"])
	}
	if created := asTime(data["createdAt"]); created != nil {
		item.CreatedAt = *created
	}
	return item
}
