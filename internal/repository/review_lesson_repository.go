package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ndtutor/tutor-api/internal/models"
)

// ReviewLessonRepository stores generated weekly review lessons and the
// teacher-editable review template.
type ReviewLessonRepository struct {
	client *firestore.Client
}

// NewReviewLessonRepository constructs the repository.
func NewReviewLessonRepository(client *firestore.Client) *ReviewLessonRepository {
	return &ReviewLessonRepository{client: client}
}

func (r *ReviewLessonRepository) doc(userID, reviewID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection("reviewLessons").Doc(reviewID)
}

// Exists reports whether a review lesson with this id already exists.
func (r *ReviewLessonRepository) Exists(ctx context.Context, userID, reviewID string) (bool, error) {
	_, err := r.doc(userID, reviewID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("check review lesson %s/%s: %w", userID, reviewID, err)
	}
	return true, nil
}

// Create persists the generated lesson. Completion fields start empty and
// are filled in later by the live session flow.
func (r *ReviewLessonRepository) Create(ctx context.Context, lesson models.ReviewLesson) error {
	data := map[string]interface{}{
		"id":               lesson.ID,
		"userId":           lesson.UserID,
		"weekStart":        lesson.WeekStart,
		"status":           lesson.Status,
		"generatedPrompt":  lesson.GeneratedPrompt,
		"targetStruggles":  lesson.TargetStruggles,
		"struggleWords":    lesson.StruggleWords,
		"userLevel":        lesson.UserLevel,
		"estimatedMinutes": lesson.EstimatedMinutes,
		"createdAt":        lesson.CreatedAt,
		"completedAt":      nil,
		"sessionId":        nil,
		"stars":            nil,
	}

	if _, err := r.doc(lesson.UserID, lesson.ID).Set(ctx, data); err != nil {
		return fmt.Errorf("create review lesson %s/%s: %w", lesson.UserID, lesson.ID, err)
	}
	return nil
}

// GetTemplate fetches the editable review session template. Returns empty
// when no template document exists; callers fall back to the built-in one.
func (r *ReviewLessonRepository) GetTemplate(ctx context.Context) (string, error) {
	doc, err := r.client.Collection("systemTemplates").Doc("weeklyReviewTemplate").Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", nil
		}
		return "", fmt.Errorf("get review template: %w", err)
	}
	return asString(doc.Data()["template"]), nil
}
