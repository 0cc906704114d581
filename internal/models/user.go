package models

import "time"

// User is a student or teacher profile document.
type User struct {
	ID            string     `firestore:"-"`
	DisplayName   string     `firestore:"displayName"`
	RawLevel      string     `firestore:"level"`
	TeacherID     string     `firestore:"teacherId"`
	LastSessionAt *time.Time `firestore:"lastSessionAt"`
}

// Level returns the user's level with the default fallback applied.
func (u User) Level() Level {
	return NormalizeLevel(u.RawLevel)
}

// Name returns the display name with a generic fallback.
func (u User) Name() string {
	if u.DisplayName == "" {
		return "Student"
	}
	return u.DisplayName
}
