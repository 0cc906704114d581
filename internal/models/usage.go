package models

import "time"

// UsageRecord is one session's token consumption, stored either under the
// user's sessions subcollection or in the legacy tokenUsage collection.
type UsageRecord struct {
	InputTokens  int64     `firestore:"inputTokens"`
	OutputTokens int64     `firestore:"outputTokens"`
	StartTime    time.Time `firestore:"startTime"`
}

// UsageTotals is one user's summed token consumption over a window.
type UsageTotals struct {
	InputTokens  int64
	OutputTokens int64
	SessionCount int
}
