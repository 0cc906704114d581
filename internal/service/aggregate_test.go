package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
)

func TestAverageStarsExcludesZeros(t *testing.T) {
	summaries := []models.SessionSummary{
		{Stars: 5}, {Stars: 3}, {Stars: 0}, {Stars: 4},
	}
	assert.InDelta(t, 4.0, averageStars(summaries), 0.0001)
	assert.Zero(t, averageStars(nil))
	assert.Zero(t, averageStars([]models.SessionSummary{{Stars: 0}}))
}

func TestFormatTrends(t *testing.T) {
	cases := []struct {
		name             string
		curr, prev       int
		currAvg, prevAvg float64
		sessions, stars  string
	}{
		{"growth", 15, 10, 4.2, 3.9, "+50%", "+0.3"},
		{"decline", 5, 10, 3.0, 4.0, "-50%", "-1.0"},
		{"from zero", 8, 0, 4.0, 0, "+100%", "+4.0"},
		{"no activity", 0, 0, 0, 0, "0%", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trends := formatTrends(tc.curr, tc.prev, tc.currAvg, tc.prevAvg)
			assert.Equal(t, tc.sessions, trends.Sessions)
			assert.Equal(t, tc.stars, trends.AvgStars)
		})
	}
}

func TestAggregateStudentsActivityStatus(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	active := now.Add(-2 * 24 * time.Hour)
	warning := now.Add(-4 * 24 * time.Hour)
	inactive := now.Add(-10 * 24 * time.Hour)

	users := map[string]models.User{
		"u1": {ID: "u1", DisplayName: "Ana", LastSessionAt: &active},
		"u2": {ID: "u2", DisplayName: "Ben", LastSessionAt: &warning},
		"u3": {ID: "u3", DisplayName: "Cid", LastSessionAt: &inactive},
		"u4": {ID: "u4"},
	}
	summaries := map[string][]models.SessionSummary{
		"u1": {{Stars: 5}, {Stars: 5}, {Stars: 4}, {Stars: 5}, {Stars: 4}},
	}

	students := aggregateStudents([]string{"u1", "u2", "u3", "u4"}, users, summaries, now)
	require.Len(t, students, 4)

	byID := make(map[string]dto.StudentStats)
	for _, s := range students {
		byID[s.UserID] = s
	}

	assert.Equal(t, "active", byID["u1"].ActivityStatus)
	assert.Equal(t, "warning", byID["u2"].ActivityStatus)
	assert.Equal(t, "inactive", byID["u3"].ActivityStatus)
	assert.Equal(t, "inactive", byID["u4"].ActivityStatus)
	assert.Nil(t, byID["u4"].LastActive)
	assert.Equal(t, "Student", byID["u4"].DisplayName)

	assert.True(t, byID["u1"].AdvancementCandidate)
	assert.InDelta(t, 4.6, byID["u1"].AvgStars, 0.0001)

	// Most recent first, never-active last.
	assert.Equal(t, "u1", students[0].UserID)
	assert.Equal(t, "u4", students[3].UserID)
}

func TestAggregateStrugglesSeverityBuckets(t *testing.T) {
	items := []models.ReviewItem{
		{ID: "i1", Correction: "I have been", ErrorType: models.ErrorTypeGrammar, Severity: 8},
		{ID: "i2", Correction: "I have been", ErrorType: models.ErrorTypeGrammar, Severity: 8},
		{ID: "i3", Correction: "comfortable", ErrorType: models.ErrorTypePronunciation, Severity: 5},
		{ID: "i4", UserSentence: "she don't like", Severity: 2},
	}

	struggles := aggregateStruggles(items)
	require.Len(t, struggles, 3)

	assert.Equal(t, "I have been", struggles[0].Text)
	assert.Equal(t, 2, struggles[0].Count)
	assert.Equal(t, "high", struggles[0].Severity)
	assert.Equal(t, models.ErrorTypeGrammar, struggles[0].Type)

	// Ties broken by text.
	assert.Equal(t, "comfortable", struggles[1].Text)
	assert.Equal(t, "medium", struggles[1].Severity)
	assert.Equal(t, "she don't like", struggles[2].Text)
	assert.Equal(t, "low", struggles[2].Severity)
}

func TestAggregateLessonsWarningAndAttribution(t *testing.T) {
	missions := map[string]models.Mission{
		"m1": {ID: "m1", Title: "At the Cafe", TargetLevel: "B1"},
		"m2": {ID: "m2", Title: "Job Interview", TargetLevel: "B1"},
	}
	sessions := []models.Session{
		{ID: "s1", UserID: "u1", MissionID: "m1", Stars: 2},
		{ID: "s2", UserID: "u1", MissionID: "m1", Stars: 3},
		{ID: "s3", UserID: "u2", MissionID: "m1", Stars: 2},
		{ID: "s4", UserID: "u2", MissionID: "m2", Stars: 5},
	}
	items := []models.ReviewItem{
		{ID: "i1", UserID: "u1", MissionID: "m2", Correction: "would like"},
		{ID: "i2", UserID: "u1", Correction: "an apple"},
	}

	lessons := aggregateLessons(sessions, missions, items)
	require.Len(t, lessons, 2)

	assert.Equal(t, "m1", lessons[0].MissionID)
	assert.Equal(t, 3, lessons[0].Completions)
	assert.InDelta(t, 2.3, lessons[0].AvgStars, 0.0001)
	assert.True(t, lessons[0].Warning)
	// Item without a lesson link lands on the first lesson its owner played.
	assert.Equal(t, 1, lessons[0].StruggleCount)
	assert.Equal(t, "an apple", lessons[0].TopStruggles[0].Word)

	assert.Equal(t, "m2", lessons[1].MissionID)
	assert.False(t, lessons[1].Warning)
	assert.Equal(t, 1, lessons[1].StruggleCount)
}

func TestAggregateByLevelBucketsAndOmission(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	missions := map[string]models.Mission{
		"m1": {ID: "m1", Title: "Cafe", TargetLevel: "A2"},
		"m2": {ID: "m2", Title: "Untargeted"},
	}
	sessions := []models.Session{
		{ID: "s1", UserID: "u1", MissionID: "m1", Stars: 4},
		{ID: "s2", UserID: "u2", MissionID: "m2", Stars: 5},
	}
	users := map[string]models.User{
		"u1": {ID: "u1", RawLevel: "A2"},
		"u2": {ID: "u2"},
	}
	bundle := recordBundle{
		summaries: map[string][]models.SessionSummary{
			"u1": {{Stars: 4, Duration: 600}},
			"u2": {{Stars: 5, Duration: 300}},
		},
		prevSummaries: map[string][]models.SessionSummary{},
		mastered:      map[string]int{"u1": 2, "u2": 1},
	}

	byLevel := aggregateByLevel(missions, sessions, nil, users, bundle, now)

	require.Len(t, byLevel, 2)
	require.Contains(t, byLevel, "A2")
	// Mission without a target level and user without a level both land in B1.
	require.Contains(t, byLevel, "B1")

	a2 := byLevel["A2"]
	assert.Equal(t, 1, a2.StudentCount)
	assert.Equal(t, 1, a2.SessionCount)
	assert.InDelta(t, 4.0, a2.AvgStars, 0.0001)
	assert.Equal(t, 10, a2.TotalPracticeMinutes)
	assert.Equal(t, 2, a2.WordsMastered)

	b1 := byLevel["B1"]
	assert.Equal(t, 5, b1.TotalPracticeMinutes)
	assert.Equal(t, 1, b1.WordsMastered)
}

func TestCalculateTotalsAveragesNonzeroLevels(t *testing.T) {
	byLevel := map[string]dto.LevelBlock{
		"A2": {StudentCount: 3, SessionCount: 10, AvgStars: 4.0, TotalPracticeMinutes: 120, WordsMastered: 5},
		"B1": {StudentCount: 2, SessionCount: 4, AvgStars: 3.0, TotalPracticeMinutes: 60, WordsMastered: 2},
		"C1": {StudentCount: 1, SessionCount: 0, AvgStars: 0},
	}

	totals := calculateTotals(byLevel)
	assert.Equal(t, 6, totals.StudentCount)
	assert.Equal(t, 14, totals.SessionCount)
	assert.Equal(t, 180, totals.TotalPracticeMinutes)
	assert.Equal(t, 7, totals.WordsMastered)
	assert.InDelta(t, 3.5, totals.AvgStars, 0.0001)
}
