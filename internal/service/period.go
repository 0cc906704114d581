package service

import (
	"fmt"
	"time"

	"github.com/ndtutor/tutor-api/internal/models"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
)

// allTimeFloor bounds all-time queries; nothing predates the product launch.
var allTimeFloor = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// ResolvePeriod converts a period selector into the current window and an
// equal-length previous window ending where the current one starts. The
// all-time period has no previous window and returns nil for it.
func ResolvePeriod(now time.Time, period string) (models.Window, *models.Window, error) {
	now = now.UTC()

	switch period {
	case models.PeriodWeek, models.PeriodMonth:
		days := 7
		if period == models.PeriodMonth {
			days = 30
		}
		span := time.Duration(days) * 24 * time.Hour
		current := models.Window{Start: now.Add(-span), End: now}
		previous := &models.Window{Start: current.Start.Add(-span), End: current.Start}
		return current, previous, nil
	case models.PeriodAllTime:
		return models.Window{Start: allTimeFloor, End: now}, nil, nil
	default:
		return models.Window{}, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid period %q, expected week, month or all-time", period))
	}
}
