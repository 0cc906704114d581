package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type languageService interface {
	Translate(ctx context.Context, req dto.TranslateRequest) (*dto.TranslateResponse, error)
	Synthesize(ctx context.Context, req dto.TTSRequest) (*dto.TTSResponse, error)
}

// LanguageHandler proxies translation and text-to-speech.
type LanguageHandler struct {
	service languageService
}

// NewLanguageHandler constructs the handler.
func NewLanguageHandler(service languageService) *LanguageHandler {
	return &LanguageHandler{service: service}
}

// Translate serves POST /translate.
func (h *LanguageHandler) Translate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "text and targetLanguage are required"))
		return
	}

	result, err := h.service.Translate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Synthesize serves POST /tts.
func (h *LanguageHandler) Synthesize(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "text is required"))
		return
	}

	audio, err := h.service.Synthesize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audio)
}
