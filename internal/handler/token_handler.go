package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type tokenService interface {
	Issue(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
}

// TokenHandler mints ephemeral Live-API tokens for clients.
type TokenHandler struct {
	service tokenService
}

// NewTokenHandler constructs the handler.
func NewTokenHandler(service tokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// Create serves POST /token.
func (h *TokenHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userId is required"))
		return
	}

	token, err := h.service.Issue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token)
}
