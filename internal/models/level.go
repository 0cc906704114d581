package models

// Level is one of the six CEFR proficiency tiers used to bucket learners
// and lesson content.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"

	// DefaultLevel is applied wherever a record needs level attribution but
	// carries none. It must be used consistently across all call sites.
	DefaultLevel = LevelB1
)

// AllLevels lists the six levels in ascending order.
var AllLevels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Valid reports whether the level is one of the six known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}

// NormalizeLevel applies the default for absent levels. A non-empty unknown
// value is preserved so callers can still drop it from level-bucketed views.
func NormalizeLevel(raw string) Level {
	if raw == "" {
		return DefaultLevel
	}
	return Level(raw)
}
