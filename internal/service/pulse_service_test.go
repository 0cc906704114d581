package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
	"github.com/ndtutor/tutor-api/pkg/config"
)

type fakePulseStore struct {
	snapshot models.PulseSnapshot
	found    bool
	getErr   error

	stored   *models.PulseSnapshot
	touched  bool
	storeDay string
}

func (f *fakePulseStore) Get(context.Context, string, string) (models.PulseSnapshot, bool, error) {
	return f.snapshot, f.found, f.getErr
}

func (f *fakePulseStore) Set(_ context.Context, _ string, day string, snapshot models.PulseSnapshot) error {
	f.stored = &snapshot
	f.storeDay = day
	return nil
}

func (f *fakePulseStore) Touch(context.Context, string, string, time.Time) error {
	f.touched = true
	return nil
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateText(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestDecideRegeneration(t *testing.T) {
	last := models.PulseData{TotalSessions: 10, TotalStruggles: 4}

	regen, _ := decideRegeneration(last, 13, 5, 3, 5)
	assert.True(t, regen)

	regen, _ = decideRegeneration(last, 12, 9, 3, 5)
	assert.True(t, regen)

	regen, reason := decideRegeneration(last, 12, 8, 3, 5)
	assert.False(t, regen)
	assert.Equal(t, "Only 2 new sessions and 4 new struggles (thresholds: 3/5)", reason)
}

func TestParseInsightsValid(t *testing.T) {
	raw := "```json\n" + `{"insights":[
		{"type":"warning","level":"B1","title":"Nina needs a nudge","message":"She has not practiced this week."},
		{"type":"celebrate","level":null,"title":"Great effort","message":"The class logged 20 sessions."}
	]}` + "\n```"

	insights, err := parseInsights(raw)
	require.NoError(t, err)
	require.Len(t, insights, 2)

	assert.Equal(t, models.InsightWarning, insights[0].Type)
	require.NotNil(t, insights[0].Level)
	assert.Equal(t, "B1", *insights[0].Level)

	// Unknown type coerced to info, null level preserved.
	assert.Equal(t, models.InsightInfo, insights[1].Type)
	assert.Nil(t, insights[1].Level)
}

func TestParseInsightsTruncatesAndCaps(t *testing.T) {
	long := strings.Repeat("x", 300)
	raw := `{"insights":[
		{"type":"info","title":"` + long + `","message":"` + long + `"},
		{"type":"info","title":"b","message":"b"},
		{"type":"info","title":"c","message":"c"},
		{"type":"info","title":"d","message":"d"}
	]}`

	insights, err := parseInsights(raw)
	require.NoError(t, err)
	require.Len(t, insights, 3)
	assert.Len(t, insights[0].Title, 50)
	assert.Len(t, insights[0].Message, 200)
}

func TestParseInsightsRejectsMissingFields(t *testing.T) {
	_, err := parseInsights(`{"insights":[{"type":"info","title":"","message":"x"}]}`)
	assert.Error(t, err)

	_, err = parseInsights("not json at all")
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}

func TestFormatClassDigest(t *testing.T) {
	level := "B1"
	analytics := &dto.AnalyticsResponse{
		ByLevel: map[string]dto.LevelBlock{
			level: {
				StudentCount: 2,
				Students: []dto.StudentStats{
					{DisplayName: "Ana", AvgStars: 4.5, ActivityStatus: "active"},
					{DisplayName: "Ben", AvgStars: 2.1, ActivityStatus: "inactive"},
				},
				TopStruggles: []dto.StruggleStats{
					{Text: "present perfect", Type: "Grammar", Count: 4},
				},
				Lessons: []dto.LessonStats{
					{Title: "Cafe", AvgStars: 3.8, Completions: 6},
				},
			},
		},
		CrossLevelInsights: dto.CrossLevelInsights{
			UniversalStruggles: []dto.UniversalStruggle{
				{Text: "articles", AffectedLevels: []string{"A2", "B1"}},
			},
		},
	}

	digest := formatClassDigest(analytics)

	assert.Contains(t, digest, "CLASS OVERVIEW (Last 7 days)")
	assert.Contains(t, digest, "--- B1 Students (2) ---")
	assert.Contains(t, digest, "Ana: excellent performance (4.5/5 stars), practicing regularly")
	assert.Contains(t, digest, "Ben: struggling performance (2.1/5 stars), inactive 7+ days")
	assert.Contains(t, digest, `"present perfect" (Grammar, 4x)`)
	assert.Contains(t, digest, `"Cafe": avg 3.8/5 stars across 6 practices`)
	assert.Contains(t, digest, "PATTERNS ACROSS LEVELS:")
	assert.Contains(t, digest, `"articles" causing trouble for A2, B1 students`)
}

func newPulseTestFixture(t *testing.T, store *fakePulseStore, ai *fakeGenerator, sessionCount int) *PulseService {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	inWindow := now.Add(-24 * time.Hour)

	var sessions []models.Session
	for i := 0; i < sessionCount; i++ {
		sessions = append(sessions, models.Session{
			ID: string(rune('a' + i)), UserID: "u1", MissionID: "m1", CreatedAt: inWindow,
		})
	}

	analytics := newTestAnalyticsService(
		&fakeMissionStore{missions: []models.Mission{{ID: "m1", TargetLevel: "B1"}}},
		&fakeSessionStore{current: sessions},
		&fakeUserStore{users: map[string]models.User{"u1": {ID: "u1", RawLevel: "B1"}}},
		&fakeSummaryStore{byUser: map[string][]models.SessionSummary{}},
		&fakeItemStore{},
		&fakeUsageStore{},
	).WithClock(func() time.Time { return now })

	return NewPulseService(
		analytics, store, ai, nil, nil, "test-model",
		config.PulseConfig{MinNewSessions: 3, MinNewStruggles: 5},
	).WithClock(func() time.Time { return now })
}

func TestPulseGenerateSkipsWhenFresh(t *testing.T) {
	store := &fakePulseStore{
		found: true,
		snapshot: models.PulseSnapshot{
			Insights:     []models.Insight{{Type: "info", Title: "Existing", Message: "Kept"}},
			GeneratedAt:  time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC),
			StillValidAt: time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC),
			DataSnapshot: models.PulseData{TotalSessions: 2, TotalStruggles: 0},
		},
	}
	ai := &fakeGenerator{reply: `{"insights":[]}`}
	svc := newPulseTestFixture(t, store, ai, 4)

	resp, err := svc.Generate(context.Background(), "t1", false)
	require.NoError(t, err)

	assert.False(t, resp.IsNew)
	assert.NotEmpty(t, resp.SkippedReason)
	assert.True(t, store.touched)
	assert.Zero(t, ai.calls)
	require.Len(t, resp.Insights, 1)
	assert.Equal(t, "Existing", resp.Insights[0].Title)
}

func TestPulseGenerateRegeneratesWhenStale(t *testing.T) {
	store := &fakePulseStore{
		found: true,
		snapshot: models.PulseSnapshot{
			DataSnapshot: models.PulseData{TotalSessions: 1},
		},
	}
	ai := &fakeGenerator{reply: `{"insights":[{"type":"success","title":"Busy week","message":"Four sessions logged."}]}`}
	svc := newPulseTestFixture(t, store, ai, 4)

	resp, err := svc.Generate(context.Background(), "t1", false)
	require.NoError(t, err)

	assert.True(t, resp.IsNew)
	assert.Empty(t, resp.SkippedReason)
	assert.Equal(t, 1, ai.calls)
	require.NotNil(t, store.stored)
	assert.Equal(t, 4, store.stored.DataSnapshot.TotalSessions)
	assert.Equal(t, "2026-08-30", store.storeDay)
}

func TestPulseGenerateForceBypassesGate(t *testing.T) {
	store := &fakePulseStore{
		found: true,
		snapshot: models.PulseSnapshot{
			DataSnapshot: models.PulseData{TotalSessions: 4},
		},
	}
	ai := &fakeGenerator{reply: `{"insights":[{"type":"info","title":"T","message":"M"}]}`}
	svc := newPulseTestFixture(t, store, ai, 4)

	resp, err := svc.Generate(context.Background(), "t1", true)
	require.NoError(t, err)
	assert.True(t, resp.IsNew)
	assert.Equal(t, 1, ai.calls)
}

func TestPulseGenerateNoActivity(t *testing.T) {
	store := &fakePulseStore{}
	ai := &fakeGenerator{}
	svc := newPulseTestFixture(t, store, ai, 0)

	resp, err := svc.Generate(context.Background(), "t1", false)
	require.NoError(t, err)

	assert.Empty(t, resp.Insights)
	assert.Equal(t, "No class activity in the past week", resp.SkippedReason)
	assert.Zero(t, ai.calls)
	assert.Nil(t, store.stored)
}

func TestPulseGenerateFallbackOnModelFailure(t *testing.T) {
	store := &fakePulseStore{}
	ai := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := newPulseTestFixture(t, store, ai, 4)

	resp, err := svc.Generate(context.Background(), "t1", false)
	require.NoError(t, err)

	require.Len(t, resp.Insights, 1)
	assert.Equal(t, "Insights Unavailable", resp.Insights[0].Title)
	assert.Equal(t, models.InsightInfo, resp.Insights[0].Type)
}

func TestPulseGetWithoutSnapshot(t *testing.T) {
	svc := newPulseTestFixture(t, &fakePulseStore{}, &fakeGenerator{}, 0)

	resp, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, resp.Insights)
	assert.Equal(t, "No insights generated yet today", resp.SkippedReason)
}
