package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/middleware"
	"github.com/ndtutor/tutor-api/internal/models"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/export"
	"github.com/ndtutor/tutor-api/pkg/response"
)

type mistakesService interface {
	GetClassMistakes(ctx context.Context, teacherID, period string) (*dto.MistakesResponse, error)
	ExportDataset(resp *dto.MistakesResponse) export.Dataset
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// MistakesHandler wires the class mistakes feed to HTTP endpoints.
type MistakesHandler struct {
	service mistakesService
	csv     csvRenderer
	pdf     pdfRenderer
}

// NewMistakesHandler constructs the handler.
func NewMistakesHandler(service mistakesService, csv csvRenderer, pdf pdfRenderer) *MistakesHandler {
	return &MistakesHandler{service: service, csv: csv, pdf: pdf}
}

// Teacher serves GET /mistakes/teacher/:teacherId.
func (h *MistakesHandler) Teacher(c *gin.Context) {
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

	start := time.Now()
	mistakes, err := h.service.GetClassMistakes(c.Request.Context(), teacherID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, mistakes, meta)
}

// Export serves GET /mistakes/teacher/:teacherId/export?format=csv|pdf.
func (h *MistakesHandler) Export(c *gin.Context) {
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
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))

	mistakes, err := h.service.GetClassMistakes(c.Request.Context(), teacherID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset := h.service.ExportDataset(mistakes)
	filename := fmt.Sprintf("class-mistakes-%s-%s", teacherID, period)

	switch format {
	case "csv":
		if h.csv == nil {
			response.Error(c, appErrors.ErrInternal)
			return
		}
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed"))
			return
		}
		response.Blob(c, "text/csv", filename+".csv", payload)
	case "pdf":
		if h.pdf == nil {
			response.Error(c, appErrors.ErrInternal)
			return
		}
		title := fmt.Sprintf("Class Mistakes (%s)", period)
		payload, err := h.pdf.Render(dataset, title)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed"))
			return
		}
		response.Blob(c, "application/pdf", filename+".pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
