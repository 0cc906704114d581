package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type promptBuilder interface {
	Build(teacherPrompt string, tasks []dto.PromptTask, isReviewLesson bool) string
}

// PromptHandler assembles system prompts for live sessions.
type PromptHandler struct {
	builder promptBuilder
}

// NewPromptHandler constructs the handler.
func NewPromptHandler(builder promptBuilder) *PromptHandler {
	return &PromptHandler{builder: builder}
}

// Build serves POST /prompt/build.
func (h *PromptHandler) Build(c *gin.Context) {
	if h.builder == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.BuildPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherPrompt is required"))
		return
	}

	prompt := h.builder.Build(req.TeacherPrompt, req.Tasks, req.IsReviewLesson)
	response.JSON(c, http.StatusOK, dto.BuildPromptResponse{Prompt: prompt})
}
