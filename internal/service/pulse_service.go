package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
	"github.com/ndtutor/tutor-api/pkg/config"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
)

// classPulsePrompt frames the class digest for the generative model.
// {class_data} is replaced with the formatted digest.
const classPulsePrompt = `You are helping an English teacher understand their class at a glance.

Write like you're a thoughtful colleague - warm, direct, and practical. Use plain language a teacher would use, not technical jargon.

CRITICAL CONTEXT:
- "Stars" are the AI tutor's assessment of student PERFORMANCE (1-5 scale), NOT student ratings of lessons
- Low stars (< 3) means students are struggling with the material
- High stars (4-5) means students are performing well
- "Inactive" means the student hasn't practiced recently

WRITING STYLE:
- Use student names when relevant (e.g., "Nina seems to be struggling...")
- Be specific about WHAT to do, not just what's wrong
- Celebrate wins genuinely, don't just mention problems
- One clear thought per insight - no run-on sentences
- Write as if speaking to the teacher directly

INSIGHT TYPES:
- "warning": Something needs your attention soon (inactive students, struggling performers)
- "success": Good news worth celebrating (strong performance, consistency)
- "info": Neutral observation that might help (patterns, trends)

Generate 2-3 insights, prioritizing:
1. Students who need help (inactive or struggling)
2. Wins worth celebrating
3. Patterns across your class

CLASS DATA:
{class_data}

Respond with ONLY valid JSON:
{
  "insights": [
    {
      "type": "warning|info|success",
      "level": "A2|B1|B2|null",
      "title": "Brief headline (3-5 words)",
      "message": "One clear sentence with specific action or observation."
    }
  ]
}`

const (
	maxInsights       = 3
	insightTitleLimit = 50
	insightBodyLimit  = 200
)

// TextGenerator is the single-shot prompt to text call.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// PulseStore persists the per-teacher per-day snapshot.
type PulseStore interface {
	Get(ctx context.Context, teacherID, day string) (models.PulseSnapshot, bool, error)
	Set(ctx context.Context, teacherID, day string, snapshot models.PulseSnapshot) error
	Touch(ctx context.Context, teacherID, day string, now time.Time) error
}

// PulseService generates and serves the daily Class Pulse. The smart
// trigger gate skips the expensive AI call when too little has changed
// since the last generation.
type PulseService struct {
	analytics *AnalyticsService
	store     PulseStore
	ai        TextGenerator
	metrics   *MetricsService
	logger    *zap.Logger

	model           string
	minNewSessions  int
	minNewStruggles int

	now func() time.Time
}

// NewPulseService constructs the pulse service.
func NewPulseService(
	analytics *AnalyticsService,
	store PulseStore,
	ai TextGenerator,
	metrics *MetricsService,
	logger *zap.Logger,
	model string,
	pulseCfg config.PulseConfig,
) *PulseService {
	minSessions := pulseCfg.MinNewSessions
	if minSessions <= 0 {
		minSessions = 3
	}
	minStruggles := pulseCfg.MinNewStruggles
	if minStruggles <= 0 {
		minStruggles = 5
	}
	return &PulseService{
		analytics:       analytics,
		store:           store,
		ai:              ai,
		metrics:         metrics,
		logger:          logger,
		model:           model,
		minNewSessions:  minSessions,
		minNewStruggles: minStruggles,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *PulseService) WithClock(now func() time.Time) *PulseService {
	s.now = now
	return s
}

// Get returns today's stored insights without regenerating.
func (s *PulseService) Get(ctx context.Context, teacherID string) (*dto.PulseResponse, error) {
	now := s.now()
	day := now.Format("2006-01-02")

	snapshot, found, err := s.store.Get(ctx, teacherID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load insights")
	}
	if !found {
		return emptyPulseResponse("No insights generated yet today"), nil
	}

	resp := snapshotToResponse(snapshot, false)
	return resp, nil
}

// Generate runs the trigger gate and, when justified, regenerates insights
// via the AI service. force bypasses the gate.
func (s *PulseService) Generate(ctx context.Context, teacherID string, force bool) (*dto.PulseResponse, error) {
	now := s.now()
	day := now.Format("2006-01-02")

	analytics, _, err := s.analytics.GetTeacherAnalytics(ctx, teacherID, models.PeriodWeek, "all")
	if err != nil {
		return nil, err
	}
	currentSessions := analytics.Totals.SessionCount
	currentStruggles := countStruggles(analytics)

	if !force {
		snapshot, found, err := s.store.Get(ctx, teacherID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load insights")
		}
		if found {
			regenerate, reason := decideRegeneration(snapshot.DataSnapshot, currentSessions, currentStruggles, s.minNewSessions, s.minNewStruggles)
			if !regenerate {
				if s.logger != nil {
					s.logger.Info("pulse regeneration skipped", zap.String("teacher", teacherID), zap.String("reason", reason))
				}
				if err := s.store.Touch(ctx, teacherID, day, now); err != nil && s.logger != nil {
					s.logger.Warn("pulse touch failed", zap.String("teacher", teacherID), zap.Error(err))
				}
				resp := snapshotToResponse(snapshot, false)
				resp.SkippedReason = reason
				return resp, nil
			}
		}
	}

	if currentSessions == 0 {
		return emptyPulseResponse("No class activity in the past week"), nil
	}

	digest := formatClassDigest(analytics)
	insights := s.narrate(ctx, digest)

	snapshot := models.PulseSnapshot{
		Insights:     insights,
		GeneratedAt:  now,
		StillValidAt: now,
		DataSnapshot: models.PulseData{
			TotalSessions:   currentSessions,
			TotalStruggles:  currentStruggles,
			LastGeneratedAt: now,
		},
	}
	if err := s.store.Set(ctx, teacherID, day, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store insights")
	}

	resp := snapshotToResponse(snapshot, true)
	return resp, nil
}

// decideRegeneration is the trigger gate: enough new sessions or struggles
// since the stored snapshot justify a regeneration.
func decideRegeneration(last models.PulseData, currentSessions, currentStruggles, minSessions, minStruggles int) (bool, string) {
	newSessions := currentSessions - last.TotalSessions
	newStruggles := currentStruggles - last.TotalStruggles

	if newSessions >= minSessions {
		return true, fmt.Sprintf("%d new sessions since last generation", newSessions)
	}
	if newStruggles >= minStruggles {
		return true, fmt.Sprintf("%d new struggles since last generation", newStruggles)
	}
	return false, fmt.Sprintf("Only %d new sessions and %d new struggles (thresholds: %d/%d)", newSessions, newStruggles, minSessions, minStruggles)
}

// countStruggles sums the ranked struggle entries across level blocks; this
// is the same figure the gate snapshots.
func countStruggles(analytics *dto.AnalyticsResponse) int {
	total := 0
	for _, block := range analytics.ByLevel {
		total += len(block.TopStruggles)
	}
	return total
}

// formatClassDigest renders the aggregate into the bounded plain-text brief
// handed to the model.
func formatClassDigest(analytics *dto.AnalyticsResponse) string {
	lines := []string{"CLASS OVERVIEW (Last 7 days)", ""}

	levels := make([]string, 0, len(analytics.ByLevel))
	for level := range analytics.ByLevel {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	for _, level := range levels {
		block := analytics.ByLevel[level]
		if block.StudentCount == 0 {
			continue
		}

		lines = append(lines, fmt.Sprintf("--- %s Students (%d) ---", level, block.StudentCount))

		students := block.Students
		if len(students) > 8 {
			students = students[:8]
		}
		for _, student := range students {
			statusLabel := student.ActivityStatus
			switch student.ActivityStatus {
			case "active":
				statusLabel = "practicing regularly"
			case "warning":
				statusLabel = "hasn't practiced in a few days"
			case "inactive":
				statusLabel = "inactive 7+ days"
			}

			if student.AvgStars > 0 {
				perf := "excellent"
				switch {
				case student.AvgStars < 3:
					perf = "struggling"
				case student.AvgStars < 4:
					perf = "solid"
				}
				lines = append(lines, fmt.Sprintf("  • %s: %s performance (%.1f/5 stars), %s", student.DisplayName, perf, student.AvgStars, statusLabel))
			} else {
				lines = append(lines, fmt.Sprintf("  • %s: %s", student.DisplayName, statusLabel))
			}
		}

		if len(block.TopStruggles) > 0 {
			lines = append(lines, "  Common mistakes:")
			for i, struggle := range block.TopStruggles {
				if i == 3 {
					break
				}
				lines = append(lines, fmt.Sprintf("    - %q (%s, %dx)", struggle.Text, struggle.Type, struggle.Count))
			}
		}

		if len(block.Lessons) > 0 {
			lines = append(lines, "  Lessons practiced:")
			for i, lesson := range block.Lessons {
				if i == 3 {
					break
				}
				lines = append(lines, fmt.Sprintf("    - %q: avg %.1f/5 stars across %d practices", lesson.Title, lesson.AvgStars, lesson.Completions))
			}
		}

		lines = append(lines, "")
	}

	universal := analytics.CrossLevelInsights.UniversalStruggles
	if len(universal) > 0 {
		lines = append(lines, "PATTERNS ACROSS LEVELS:")
		for i, struggle := range universal {
			if i == 3 {
				break
			}
			lines = append(lines, fmt.Sprintf("  • %q causing trouble for %s students", struggle.Text, strings.Join(struggle.AffectedLevels, ", ")))
		}
	}

	return strings.Join(lines, "\n")
}

// narrate calls the model and sanitises its output. It never fails: any
// upstream problem degrades to the static fallback insight.
func (s *PulseService) narrate(ctx context.Context, digest string) []models.Insight {
	if s.ai == nil {
		return fallbackInsights()
	}

	prompt := strings.Replace(classPulsePrompt, "{class_data}", digest, 1)

	start := time.Now()
	raw, err := s.ai.GenerateText(ctx, s.model, prompt)
	if s.metrics != nil {
		s.metrics.ObserveAICall(s.model, time.Since(start))
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("pulse generation call failed, using fallback", zap.Error(err))
		}
		return fallbackInsights()
	}

	insights, err := parseInsights(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("pulse response unparseable, using fallback", zap.Error(err))
		}
		return fallbackInsights()
	}
	if len(insights) == 0 {
		return fallbackInsights()
	}
	return insights
}

func fallbackInsights() []models.Insight {
	return []models.Insight{{
		Type:    models.InsightInfo,
		Level:   nil,
		Title:   "Insights Unavailable",
		Message: "Unable to generate AI insights at this time. Check the Analytics tab for detailed data.",
	}}
}

func emptyPulseResponse(reason string) *dto.PulseResponse {
	return &dto.PulseResponse{
		Insights:      []dto.Insight{},
		IsNew:         false,
		SkippedReason: reason,
	}
}

func snapshotToResponse(snapshot models.PulseSnapshot, isNew bool) *dto.PulseResponse {
	insights := make([]dto.Insight, 0, len(snapshot.Insights))
	for _, insight := range snapshot.Insights {
		insights = append(insights, dto.Insight{
			Type:    insight.Type,
			Level:   insight.Level,
			Title:   insight.Title,
			Message: insight.Message,
		})
	}

	generated := snapshot.GeneratedAt.Format(time.RFC3339)
	valid := snapshot.StillValidAt.Format(time.RFC3339)
	return &dto.PulseResponse{
		Insights:     insights,
		GeneratedAt:  &generated,
		StillValidAt: &valid,
		IsNew:        isNew,
	}
}
