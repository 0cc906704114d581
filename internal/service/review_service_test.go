package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/models"
	"github.com/ndtutor/tutor-api/pkg/config"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
)

type fakeLessonStore struct {
	exists   bool
	template string
	created  *models.ReviewLesson
}

func (f *fakeLessonStore) Exists(context.Context, string, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeLessonStore) Create(_ context.Context, lesson models.ReviewLesson) error {
	f.created = &lesson
	return nil
}

func (f *fakeLessonStore) GetTemplate(context.Context) (string, error) {
	return f.template, nil
}

type reviewedCall struct {
	itemID   string
	newCount int
	mastered bool
	reviewID string
}

type fakeReviewableStore struct {
	items    []models.ReviewItem
	reviewed []reviewedCall
}

func (f *fakeReviewableStore) ListUnmastered(context.Context, string) ([]models.ReviewItem, error) {
	return f.items, nil
}

func (f *fakeReviewableStore) MarkReviewed(_ context.Context, _ string, itemID string, newCount int, mastered bool, _ time.Time, reviewID string) error {
	f.reviewed = append(f.reviewed, reviewedCall{itemID: itemID, newCount: newCount, mastered: mastered, reviewID: reviewID})
	return nil
}

type fakeProfileStore struct {
	user models.User
	err  error
}

func (f *fakeProfileStore) Get(context.Context, string) (models.User, error) {
	return f.user, f.err
}

func newTestReviewService(lessons *fakeLessonStore, items *fakeReviewableStore, users *fakeProfileStore) *ReviewService {
	svc := NewReviewService(lessons, items, users, nil, nil, config.ReviewConfig{
		CooldownDays:      7,
		MaxReviewCount:    3,
		MinItems:          3,
		MaxItems:          8,
		WorkerConcurrency: 1,
	})
	// Saturday 2026-08-29; the week's Monday is 2026-08-24.
	return svc.WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	})
}

func reviewItems(n int) []models.ReviewItem {
	items := make([]models.ReviewItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.ReviewItem{
			ID:         fmt.Sprintf("item-%02d", i),
			Severity:   5,
			Correction: fmt.Sprintf("phrase %d", i),
		})
	}
	return items
}

func TestGenerateForUserSkipsExisting(t *testing.T) {
	lessons := &fakeLessonStore{exists: true}
	svc := newTestReviewService(lessons, &fakeReviewableStore{items: reviewItems(5)}, &fakeProfileStore{})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, lesson)
	assert.Nil(t, lessons.created)
}

func TestGenerateForUserSkipsInsufficientItems(t *testing.T) {
	lessons := &fakeLessonStore{}
	svc := newTestReviewService(lessons, &fakeReviewableStore{items: reviewItems(2)}, &fakeProfileStore{})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, lesson)
	assert.Nil(t, lessons.created)
}

func TestGenerateForUserCreatesLesson(t *testing.T) {
	lessons := &fakeLessonStore{}
	store := &fakeReviewableStore{items: []models.ReviewItem{
		{ID: "i1", Severity: 9, Correction: "I have been", UserSentence: "I has been", ErrorType: models.ErrorTypeGrammar, AudioURL: "gs://a.mp3"},
		{ID: "i2", Severity: 7, Correction: "an apple", UserSentence: "a apple", ErrorType: models.ErrorTypeGrammar, ReviewCount: 2},
		{ID: "i3", Severity: 5, Correction: "comfortable", UserSentence: "comftable", ErrorType: models.ErrorTypePronunciation, Explanation: "stress on the first syllable"},
	}}
	users := &fakeProfileStore{user: models.User{ID: "u1", RawLevel: "B2"}}
	svc := newTestReviewService(lessons, store, users)

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, lesson)

	assert.Equal(t, "week-2026-08-24", lesson.ID)
	assert.Equal(t, "2026-08-24", lesson.WeekStart)
	assert.Equal(t, models.ReviewStatusReady, lesson.Status)
	assert.Equal(t, "B2", lesson.UserLevel)
	assert.Equal(t, 5, lesson.EstimatedMinutes)
	// Highest severity first.
	assert.Equal(t, []string{"i1", "i2", "i3"}, lesson.TargetStruggles)
	assert.Equal(t, []string{"I have been", "an apple", "comfortable"}, lesson.StruggleWords)

	prompt := lesson.GeneratedPrompt
	assert.Contains(t, prompt, "STUDENT LEVEL: B2")
	assert.Contains(t, prompt, "**I have been** (HAS AUDIO)")
	assert.Contains(t, prompt, "**an apple** (no audio)")
	assert.Contains(t, prompt, "Why: stress on the first syllable")
	assert.Contains(t, prompt, "## REVIEW ITEM REFERENCE (for function calls)")
	assert.Contains(t, prompt, "ID: `i1`")
	assert.Contains(t, prompt, "{{studentName}}")

	require.NotNil(t, lessons.created)
	require.Len(t, store.reviewed, 3)
	for _, call := range store.reviewed {
		assert.Equal(t, "week-2026-08-24", call.reviewID)
	}
	// i2 was already reviewed twice; this pass is its third and masters it.
	assert.Equal(t, reviewedCall{itemID: "i1", newCount: 1, mastered: false, reviewID: "week-2026-08-24"}, store.reviewed[0])
	assert.Equal(t, reviewedCall{itemID: "i2", newCount: 3, mastered: true, reviewID: "week-2026-08-24"}, store.reviewed[1])
}

func TestGenerateForUserEligibilityFilters(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * 24 * time.Hour)
	old := now.Add(-10 * 24 * time.Hour)

	store := &fakeReviewableStore{items: []models.ReviewItem{
		{ID: "keep-old-review", Severity: 6, Correction: "a", LastReviewedAt: &old},
		{ID: "keep-never", Severity: 5, Correction: "b"},
		{ID: "keep-low", Severity: 4, Correction: "c"},
		{ID: "drop-cooldown", Severity: 10, Correction: "d", LastReviewedAt: &recent},
		{ID: "drop-maxed", Severity: 10, Correction: "e", ReviewCount: 3},
	}}
	lessons := &fakeLessonStore{}
	svc := newTestReviewService(lessons, store, &fakeProfileStore{user: models.User{ID: "u1"}})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, lesson)

	assert.Equal(t, []string{"keep-old-review", "keep-never", "keep-low"}, lesson.TargetStruggles)
	assert.Equal(t, "B1", lesson.UserLevel)
}

func TestGenerateForUserCapsAtMaxItems(t *testing.T) {
	lessons := &fakeLessonStore{}
	svc := newTestReviewService(lessons, &fakeReviewableStore{items: reviewItems(12)}, &fakeProfileStore{})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, lesson)
	assert.Len(t, lesson.TargetStruggles, 8)
}

func TestGenerateForUserUsesStoredTemplate(t *testing.T) {
	lessons := &fakeLessonStore{template: "Custom template for {{level}}:\n{{struggles}}\n{{itemReference}}"}
	svc := newTestReviewService(lessons, &fakeReviewableStore{items: reviewItems(3)}, &fakeProfileStore{user: models.User{RawLevel: "A2"}})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, lesson)
	assert.Contains(t, lesson.GeneratedPrompt, "Custom template for A2:")
	assert.NotContains(t, lesson.GeneratedPrompt, "WEEKLY REVIEW")
}

type recordingCacheRepo struct {
	deleted []string
}

func (r *recordingCacheRepo) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (r *recordingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	r.deleted = append(r.deleted, pattern)
	return nil
}

func TestGenerateForUserEvictsTeacherAnalytics(t *testing.T) {
	repo := &recordingCacheRepo{}
	caches := NewCacheService(repo, nil, time.Minute, nil, true)
	users := &fakeProfileStore{user: models.User{ID: "u1", RawLevel: "B2", TeacherID: "t1"}}

	svc := NewReviewService(&fakeLessonStore{}, &fakeReviewableStore{items: reviewItems(3)}, users, caches, nil, config.ReviewConfig{
		CooldownDays:      7,
		MaxReviewCount:    3,
		MinItems:          3,
		MaxItems:          8,
		WorkerConcurrency: 1,
	}).WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, lesson)

	assert.Equal(t, []string{"analytics:t1:*"}, repo.deleted)
}

func TestGenerateForUserSkipsEvictionWithoutTeacher(t *testing.T) {
	repo := &recordingCacheRepo{}
	caches := NewCacheService(repo, nil, time.Minute, nil, true)
	users := &fakeProfileStore{user: models.User{ID: "u1"}}

	svc := NewReviewService(&fakeLessonStore{}, &fakeReviewableStore{items: reviewItems(3)}, users, caches, nil, config.ReviewConfig{
		CooldownDays:      7,
		MaxReviewCount:    3,
		MinItems:          3,
		MaxItems:          8,
		WorkerConcurrency: 1,
	}).WithClock(func() time.Time {
		return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	})

	lesson, err := svc.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, lesson)

	assert.Empty(t, repo.deleted)
}

func TestMondayOf(t *testing.T) {
	assert.Equal(t, "2026-08-24", mondayOf(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-08-24", mondayOf(time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-08-31", mondayOf(time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)))
}
