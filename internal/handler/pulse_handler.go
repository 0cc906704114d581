package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/middleware"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type pulseService interface {
	Get(ctx context.Context, teacherID string) (*dto.PulseResponse, error)
	Generate(ctx context.Context, teacherID string, force bool) (*dto.PulseResponse, error)
}

// PulseHandler wires the daily class pulse to HTTP endpoints.
type PulseHandler struct {
	service pulseService
}

// NewPulseHandler constructs the handler.
func NewPulseHandler(service pulseService) *PulseHandler {
	return &PulseHandler{service: service}
}

// Get serves GET /pulse/teacher/:teacherId. Read-only: never triggers
// generation.
func (h *PulseHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	teacherID := strings.TrimSpace(c.Param("teacherId"))
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId is required"))
		return
	}

	pulse, err := h.service.Get(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pulse)
}

// Generate serves POST /pulse/teacher/:teacherId. The force query skips the
// freshness gate.
func (h *PulseHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	teacherID := strings.TrimSpace(c.Param("teacherId"))
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId is required"))
		return
	}
	force := strings.EqualFold(c.Query("force"), "true")

	start := time.Now()
	pulse, err := h.service.Generate(c.Request.Context(), teacherID, force)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, pulse, meta)
}
