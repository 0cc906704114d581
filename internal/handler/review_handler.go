package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type reviewService interface {
	GenerateForUser(ctx context.Context, userID string) (*models.ReviewLesson, error)
	EnqueueBatch(userIDs []string) (int, error)
}

// ReviewHandler wires weekly review generation to HTTP endpoints. Both
// routes sit behind the shared-secret middleware; they are called by the
// scheduler, not by browsers.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// Generate serves POST /review/generate.
func (h *ReviewHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.GenerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userId is required"))
		return
	}

	start := time.Now()
	lesson, err := h.service.GenerateForUser(c.Request.Context(), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if lesson == nil {
		response.JSON(c, http.StatusOK, gin.H{"created": false})
		return
	}

	meta := map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
	response.JSON(c, http.StatusOK, dto.ReviewLessonResponse{
		ID:               lesson.ID,
		UserID:           lesson.UserID,
		WeekStart:        lesson.WeekStart,
		Status:           lesson.Status,
		ItemCount:        len(lesson.TargetStruggles),
		UserLevel:        lesson.UserLevel,
		EstimatedMinutes: lesson.EstimatedMinutes,
		CreatedAt:        lesson.CreatedAt.Format(time.RFC3339),
	}, meta)
}

// GenerateBatch serves POST /review/generate-batch. Generation happens on
// the worker queue; the response only acknowledges how many jobs were
// accepted.
func (h *ReviewHandler) GenerateBatch(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.GenerateReviewBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userIds is required"))
		return
	}

	queued, err := h.service.EnqueueBatch(req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.ReviewBatchResponse{Queued: queued})
}
