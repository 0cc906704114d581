package models

import "time"

// ReviewLessonStatus values.
const (
	ReviewStatusReady = "ready"
)

// ReviewLesson is a generated weekly review session document.
type ReviewLesson struct {
	ID               string
	UserID           string
	WeekStart        string
	Status           string
	GeneratedPrompt  string
	TargetStruggles  []string
	StruggleWords    []string
	UserLevel        string
	EstimatedMinutes int
	CreatedAt        time.Time
}
