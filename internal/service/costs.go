package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
)

// aggregateCosts sums token usage per student and derives dollar estimates
// from the configured per-million rates. A failing usage read drops that
// student from the breakdown, never the request.
func (s *AnalyticsService) aggregateCosts(
	ctx context.Context,
	userIDs []string,
	users map[string]models.User,
	window models.Window,
	period string,
) (dto.CostSummary, []dto.StudentCost) {
	var totalInput, totalOutput int64
	studentCosts := []dto.StudentCost{}

	for _, userID := range userIDs {
		start := time.Now()
		totals, err := s.usage.SumByUser(ctx, userID, window)
		s.metrics.ObserveStoreQuery("usage_by_user", time.Since(start))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("usage query failed, skipping student",
					zap.String("user", userID), zap.Error(err))
			}
			continue
		}
		if totals.SessionCount == 0 && totals.InputTokens == 0 && totals.OutputTokens == 0 {
			continue
		}

		cost := s.tokenCost(totals.InputTokens, totals.OutputTokens)
		totalInput += totals.InputTokens
		totalOutput += totals.OutputTokens

		avgPerSession := 0.0
		if totals.SessionCount > 0 {
			avgPerSession = round4(cost / float64(totals.SessionCount))
		}

		studentCosts = append(studentCosts, dto.StudentCost{
			UserID:            userID,
			DisplayName:       users[userID].Name(),
			TotalCost:         round4(cost),
			SessionCount:      totals.SessionCount,
			AvgCostPerSession: avgPerSession,
			InputTokens:       totals.InputTokens,
			OutputTokens:      totals.OutputTokens,
		})
	}

	sort.SliceStable(studentCosts, func(i, j int) bool {
		if studentCosts[i].TotalCost != studentCosts[j].TotalCost {
			return studentCosts[i].TotalCost > studentCosts[j].TotalCost
		}
		return studentCosts[i].UserID < studentCosts[j].UserID
	})

	totalCost := s.tokenCost(totalInput, totalOutput)

	paying := 0
	for _, sc := range studentCosts {
		if sc.TotalCost > 0 {
			paying++
		}
	}
	costPerStudent := 0.0
	if paying > 0 {
		costPerStudent = round4(totalCost / float64(paying))
	}

	days := 0
	switch period {
	case models.PeriodWeek:
		days = 7
	case models.PeriodMonth:
		days = 30
	default:
		days = window.Days()
	}
	dailyCost := 0.0
	if days > 0 {
		dailyCost = totalCost / float64(days)
	}

	summary := dto.CostSummary{
		TotalCost:      round4(totalCost),
		InputTokens:    totalInput,
		OutputTokens:   totalOutput,
		CostPerStudent: costPerStudent,
		DailyCost:      round4(dailyCost),
		MonthlyCost:    round4(dailyCost * 30),
	}

	return summary, studentCosts
}

// tokenCost converts token counts to USD using the configured per-1M rates.
func (s *AnalyticsService) tokenCost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*s.rates.InputPerMillion +
		float64(outputTokens)/1_000_000*s.rates.OutputPerMillion
}
