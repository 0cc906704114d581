package models

// Mission is a lesson template authored by a teacher. Immutable for
// aggregation purposes.
type Mission struct {
	ID          string `firestore:"-"`
	TeacherID   string `firestore:"teacherId"`
	TargetLevel string `firestore:"targetLevel"`
	Title       string `firestore:"title"`
}

// Level returns the mission's target level with the default fallback applied.
func (m Mission) Level() Level {
	return NormalizeLevel(m.TargetLevel)
}
