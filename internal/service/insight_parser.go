package service

import (
	"encoding/json"
	"strings"

	"github.com/ndtutor/tutor-api/internal/models"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
)

// parseInsights decodes the model's JSON reply into validated insights.
// Markdown code fences are stripped first since models wrap JSON in them
// despite instructions not to.
func parseInsights(raw string) ([]models.Insight, error) {
	cleaned := stripCodeFences(raw)

	var payload struct {
		Insights []struct {
			Type    string  `json:"type"`
			Level   *string `json:"level"`
			Title   string  `json:"title"`
			Message string  `json:"message"`
		} `json:"insights"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "model returned invalid JSON")
	}

	var insights []models.Insight
	for _, entry := range payload.Insights {
		if entry.Title == "" || entry.Message == "" {
			return nil, appErrors.Clone(appErrors.ErrUpstream, "insight missing title or message")
		}

		insightType := entry.Type
		switch insightType {
		case models.InsightSuccess, models.InsightWarning, models.InsightInfo:
		default:
			insightType = models.InsightInfo
		}

		level := entry.Level
		if level != nil && (*level == "" || strings.EqualFold(*level, "null")) {
			level = nil
		}

		insights = append(insights, models.Insight{
			Type:    insightType,
			Level:   level,
			Title:   models.Truncate(entry.Title, insightTitleLimit),
			Message: models.Truncate(entry.Message, insightBodyLimit),
		})
		if len(insights) == maxInsights {
			break
		}
	}
	return insights, nil
}

// stripCodeFences removes a surrounding ``` or ```json block if present.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
