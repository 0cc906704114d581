package dto

// Insight is one AI-generated class observation.
type Insight struct {
	Type    string  `json:"type"`
	Level   *string `json:"level"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
}

// PulseResponse is the Class Pulse payload. Timestamps are nil when no
// snapshot exists; SkippedReason explains why regeneration was skipped.
type PulseResponse struct {
	Insights      []Insight `json:"insights"`
	GeneratedAt   *string   `json:"generatedAt"`
	StillValidAt  *string   `json:"stillValidAt"`
	IsNew         bool      `json:"isNew"`
	SkippedReason string    `json:"skippedReason,omitempty"`
}
