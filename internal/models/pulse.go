package models

import "time"

// Insight types a pulse entry may carry. Anything else is coerced to info.
const (
	InsightSuccess = "success"
	InsightWarning = "warning"
	InsightInfo    = "info"
)

// Insight is one AI-generated observation about a class. Level is nil for
// class-wide observations.
type Insight struct {
	Type    string  `firestore:"type" json:"type"`
	Level   *string `firestore:"level" json:"level"`
	Title   string  `firestore:"title" json:"title"`
	Message string  `firestore:"message" json:"message"`
}

// PulseData captures the activity counts a pulse snapshot was generated
// from. The gate compares current counts against these.
type PulseData struct {
	TotalSessions   int       `firestore:"totalSessions" json:"totalSessions"`
	TotalStruggles  int       `firestore:"totalStruggles" json:"totalStruggles"`
	LastGeneratedAt time.Time `firestore:"lastGeneratedAt" json:"lastGeneratedAt"`
}

// PulseSnapshot is one day's cached pulse document for a teacher.
type PulseSnapshot struct {
	Insights     []Insight `firestore:"insights" json:"insights"`
	GeneratedAt  time.Time `firestore:"generatedAt" json:"generatedAt"`
	StillValidAt time.Time `firestore:"stillValidAt" json:"stillValidAt"`
	DataSnapshot PulseData `firestore:"dataSnapshot" json:"dataSnapshot"`
}
