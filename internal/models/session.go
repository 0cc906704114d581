package models

import "time"

// Session is one completed practice attempt tied to a mission.
type Session struct {
	ID              string    `firestore:"-"`
	UserID          string    `firestore:"userId"`
	MissionID       string    `firestore:"missionId"`
	CreatedAt       time.Time `firestore:"createdAt"`
	Stars           int       `firestore:"stars"`
	DurationSeconds float64   `firestore:"durationSeconds"`
}

// SessionSummary is the per-user denormalized session record stored under
// the user document. Duration is in seconds.
type SessionSummary struct {
	UserID    string    `firestore:"-"`
	Stars     int       `firestore:"stars"`
	Duration  float64   `firestore:"duration"`
	CreatedAt time.Time `firestore:"createdAt"`
}
