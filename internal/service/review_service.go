package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/models"
	"github.com/ndtutor/tutor-api/pkg/config"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/jobs"
)

// defaultReviewTemplate is used when no editable template document exists.
const defaultReviewTemplate = `You are a friendly English tutor conducting a WEEKLY REVIEW session with {{studentName}}.

## SESSION PURPOSE
This is a review session to help {{studentName}} practice and master mistakes they made earlier this week. Your goal is to help them improve through natural conversation, not drilling.

## STUDENT LEVEL: {{level}}
Adjust your speech accordingly:
- A1-A2: Simple sentences, speak slowly and clearly, lots of encouragement
- B1-B2: Moderate complexity, natural pace
- C1-C2: Natural speed, can use more complex structures

## MISTAKES TO REVIEW THIS SESSION:
{{struggles}}

## HOW TO CONDUCT THIS REVIEW:

1. **Start warmly**: "Hi {{studentName}}! Welcome to your weekly review. Let's practice some things from this week together."

2. **For each item with audio** (marked "HAS AUDIO"):
   - Say: "Earlier this week, you said something I'd like us to work on. Let me play it back..."
   - Call ` + "`play_student_audio`" + ` with that item's ID
   - **IMPORTANT: Stay COMPLETELY SILENT after calling play_student_audio. Do not speak until you receive the "Audio played successfully" response. The student needs to hear their recording without you talking over it.**
   - Once you receive confirmation the audio finished, THEN explain: "You said [X], but we usually say [Y] because [reason]"
   - Practice it together, then move on

3. **For items without audio**:
   - Say: "Earlier you tried to say [correction] but it came out a bit differently. Let's practice that."
   - Help them use the correct form naturally

4. **When they get it right**:
   - Celebrate briefly: "Perfect!" or "That's exactly right!"
   - Call ` + "`mark_item_mastered`" + ` with confidence level ('high', 'medium', or 'low')

5. **Keep it conversational**: Don't just drill - weave the practice into natural chat

6. **End with summary**: Call ` + "`show_session_summary`" + ` with their progress

## REVIEW SESSION TOOLS (Use these automatically)

### play_student_audio
- USE THIS for every item that has audio!
- Call it BEFORE explaining the correction so they hear themselves first
- **After calling, WAIT SILENTLY for "Audio played successfully" response before speaking**
- Parameters: { "review_item_id": "the-item-id" }

### mark_item_mastered
- Call when they demonstrate understanding (not just repeating after you)
- Parameters: { "review_item_id": "the-item-id", "confidence": "high|medium|low" }

### mark_for_review
- Only for NEW mistakes not in this review
- Parameters: { "error_type": "...", "severity": 1-10, "user_sentence": "...", "correction": "...", "explanation": "..." }

### show_session_summary
- Call at the end of the session
- Parameters: { "strengths": [...], "areas_for_improvement": [...], "stars": 1-5, "summary": "..." }

## ITEMS TO REVIEW:
{{itemReference}}`

const (
	reviewJobType          = "weekly-review"
	struggleWordLimit      = 50
	reviewEstimatedMinutes = 5
)

// ReviewLessonStore persists generated lessons and serves the template.
type ReviewLessonStore interface {
	Exists(ctx context.Context, userID, reviewID string) (bool, error)
	Create(ctx context.Context, lesson models.ReviewLesson) error
	GetTemplate(ctx context.Context) (string, error)
}

// ReviewableItemStore reads and mutates a user's review items.
type ReviewableItemStore interface {
	ListUnmastered(ctx context.Context, userID string) ([]models.ReviewItem, error)
	MarkReviewed(ctx context.Context, userID, itemID string, newCount int, mastered bool, now time.Time, reviewID string) error
}

// ProfileStore reads a single user profile.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (models.User, error)
}

// ReviewService generates weekly review lessons from unmastered review
// items. Batch generation runs through a background worker queue so the
// scheduler call returns immediately.
type ReviewService struct {
	lessons ReviewLessonStore
	items   ReviewableItemStore
	users   ProfileStore
	caches  *CacheService
	logger  *zap.Logger

	cooldown       time.Duration
	maxReviewCount int
	minItems       int
	maxItems       int

	queue *jobs.Queue
	now   func() time.Time
}

// NewReviewService constructs the review service and its worker queue. Call
// Start before enqueueing batches and Stop on shutdown.
func NewReviewService(
	lessons ReviewLessonStore,
	items ReviewableItemStore,
	users ProfileStore,
	caches *CacheService,
	logger *zap.Logger,
	cfg config.ReviewConfig,
) *ReviewService {
	s := &ReviewService{
		lessons:        lessons,
		items:          items,
		users:          users,
		caches:         caches,
		logger:         logger,
		cooldown:       time.Duration(cfg.CooldownDays) * 24 * time.Hour,
		maxReviewCount: cfg.MaxReviewCount,
		minItems:       cfg.MinItems,
		maxItems:       cfg.MaxItems,
		now:            func() time.Time { return time.Now().UTC() },
	}

	s.queue = jobs.NewQueue(reviewJobType, s.handleJob, jobs.QueueConfig{
		Workers: cfg.WorkerConcurrency,
		Logger:  logger,
	})
	return s
}

// WithClock overrides the time source. Test hook.
func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

// Start launches the batch workers.
func (s *ReviewService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the batch workers.
func (s *ReviewService) Stop() {
	s.queue.Stop()
}

// GenerateForUser creates this week's review lesson for one user. A nil
// lesson with nil error means generation was skipped: either the lesson
// already exists or the user has too few eligible items.
func (s *ReviewService) GenerateForUser(ctx context.Context, userID string) (*models.ReviewLesson, error) {
	now := s.now()
	weekStart := mondayOf(now)
	reviewID := "week-" + weekStart

	exists, err := s.lessons.Exists(ctx, userID, reviewID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}
	if exists {
		if s.logger != nil {
			s.logger.Info("review already exists", zap.String("user", userID), zap.String("week", weekStart))
		}
		return nil, nil
	}

	eligible, err := s.eligibleItems(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if len(eligible) < s.minItems {
		if s.logger != nil {
			s.logger.Info("insufficient review items", zap.String("user", userID), zap.Int("count", len(eligible)))
		}
		return nil, nil
	}

	level, teacherID := s.userProfile(ctx, userID)
	prompt, err := s.renderPrompt(ctx, eligible, level)
	if err != nil {
		return nil, err
	}

	targetIDs := make([]string, 0, len(eligible))
	displayWords := make([]string, 0, len(eligible))
	for _, item := range eligible {
		targetIDs = append(targetIDs, item.ID)
		displayWords = append(displayWords, models.Truncate(item.Correction, struggleWordLimit))
	}

	lesson := models.ReviewLesson{
		ID:               reviewID,
		UserID:           userID,
		WeekStart:        weekStart,
		Status:           models.ReviewStatusReady,
		GeneratedPrompt:  prompt,
		TargetStruggles:  targetIDs,
		StruggleWords:    displayWords,
		UserLevel:        level,
		EstimatedMinutes: reviewEstimatedMinutes,
		CreatedAt:        now,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store review lesson")
	}

	for _, item := range eligible {
		newCount := item.ReviewCount + 1
		mastered := newCount >= s.maxReviewCount
		if err := s.items.MarkReviewed(ctx, userID, item.ID, newCount, mastered, now, reviewID); err != nil && s.logger != nil {
			s.logger.Warn("review item write-back failed",
				zap.String("user", userID), zap.String("item", item.ID), zap.Error(err))
		}
	}

	// The write-backs change mastered counts and top struggles, so the
	// teacher's cached analytics snapshots are out of date.
	if teacherID != "" {
		pattern := fmt.Sprintf("analytics:%s:*", teacherID)
		if err := s.caches.Invalidate(ctx, pattern); err != nil && s.logger != nil {
			s.logger.Warn("analytics cache eviction failed",
				zap.String("teacher", teacherID), zap.Error(err))
		}
	}

	if s.logger != nil {
		s.logger.Info("review lesson created",
			zap.String("user", userID), zap.String("week", weekStart),
			zap.Int("items", len(eligible)), zap.String("level", level))
	}
	return &lesson, nil
}

// EnqueueBatch schedules per-user generation jobs and returns how many were
// accepted.
func (s *ReviewService) EnqueueBatch(userIDs []string) (int, error) {
	queued := 0
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		err := s.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    reviewJobType,
			Payload: userID,
		})
		if err != nil {
			return queued, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue review job")
		}
		queued++
	}
	return queued, nil
}

func (s *ReviewService) handleJob(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("review job %s has payload %T, want string", job.ID, job.Payload)
	}
	_, err := s.GenerateForUser(ctx, userID)
	return err
}

// eligibleItems filters unmastered items by review count and cooldown, then
// picks the most severe ones. Items reviewed the fewest times win ties.
func (s *ReviewService) eligibleItems(ctx context.Context, userID string, now time.Time) ([]models.ReviewItem, error) {
	all, err := s.items.ListUnmastered(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review items")
	}

	cutoff := now.Add(-s.cooldown)
	var eligible []models.ReviewItem
	for _, item := range all {
		if item.ReviewCount >= s.maxReviewCount {
			continue
		}
		if item.LastReviewedAt != nil && item.LastReviewedAt.After(cutoff) {
			continue
		}
		eligible = append(eligible, item)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Severity != eligible[j].Severity {
			return eligible[i].Severity > eligible[j].Severity
		}
		if eligible[i].ReviewCount != eligible[j].ReviewCount {
			return eligible[i].ReviewCount < eligible[j].ReviewCount
		}
		return eligible[i].ID < eligible[j].ID
	})

	if len(eligible) > s.maxItems {
		eligible = eligible[:s.maxItems]
	}
	return eligible, nil
}

// userProfile resolves the student's level and owning teacher. Lookup
// failures fall back to the default level and skip cache eviction.
func (s *ReviewService) userProfile(ctx context.Context, userID string) (level, teacherID string) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("user profile lookup failed, defaulting",
				zap.String("user", userID), zap.Error(err))
		}
		return string(models.DefaultLevel), ""
	}
	return string(user.Level()), user.TeacherID
}

// renderPrompt fills the template placeholders. Plain replacement, no AI
// call, so output is predictable. {{studentName}} is left for the frontend.
func (s *ReviewService) renderPrompt(ctx context.Context, items []models.ReviewItem, level string) (string, error) {
	template, err := s.lessons.GetTemplate(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("review template fetch failed, using default", zap.Error(err))
		}
		template = ""
	}
	if template == "" {
		template = defaultReviewTemplate
	}

	descriptions := make([]string, 0, len(items))
	for _, item := range items {
		descriptions = append(descriptions, formatReviewItem(item))
	}

	prompt := strings.ReplaceAll(template, "{{level}}", level)
	prompt = strings.ReplaceAll(prompt, "{{struggles}}", strings.Join(descriptions, "\n"))
	prompt = strings.ReplaceAll(prompt, "{{itemReference}}", buildItemReference(items))
	return prompt, nil
}

func formatReviewItem(item models.ReviewItem) string {
	desc := fmt.Sprintf("- **%s** (%s)\n", item.Correction, audioStatus(item))
	desc += fmt.Sprintf("  - ID: `%s`\n", item.ID)
	desc += fmt.Sprintf("  - Student said: %q\n", item.UserSentence)
	desc += fmt.Sprintf("  - Error type: %s", item.ErrorType)
	if item.Explanation != "" {
		desc += fmt.Sprintf("\n  - Why: %s", item.Explanation)
	}
	return desc
}

// buildItemReference lists the exact item ids so the live session can call
// play_student_audio and mark_item_mastered without guessing.
func buildItemReference(items []models.ReviewItem) string {
	lines := []string{
		"## REVIEW ITEM REFERENCE (for function calls)",
		"",
		"Use these exact IDs when calling play_student_audio or mark_item_mastered:",
		"",
	}
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- ID: `%s` | %q | %s", item.ID, item.Correction, audioStatus(item)))
	}
	return strings.Join(lines, "\n")
}

func audioStatus(item models.ReviewItem) string {
	if item.AudioURL != "" {
		return "HAS AUDIO"
	}
	return "no audio"
}

// mondayOf returns the ISO date of the Monday of now's week, UTC.
func mondayOf(now time.Time) string {
	day := now.UTC()
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday.Format("2006-01-02")
}
