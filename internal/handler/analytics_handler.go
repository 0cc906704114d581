package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/middleware"
	"github.com/ndtutor/tutor-api/internal/models"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type analyticsService interface {
	GetTeacherAnalytics(ctx context.Context, teacherID, period, level string) (*dto.AnalyticsResponse, bool, error)
}

// AnalyticsHandler wires the analytics service to HTTP endpoints.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Teacher serves GET /analytics/teacher/:teacherId.
func (h *AnalyticsHandler) Teacher(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	teacherID := strings.TrimSpace(c.Param("teacherId"))
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId is required"))
		return
	}
	period := strings.TrimSpace(c.DefaultQuery("period", models.PeriodWeek))
	level := strings.TrimSpace(c.Query("level"))

	start := time.Now()
	analytics, cacheHit, err := h.service.GetTeacherAnalytics(c.Request.Context(), teacherID, period, level)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, analytics, meta)
}
