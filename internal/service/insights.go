package service

import (
	"fmt"
	"sort"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
)

const (
	mismatchItemThreshold        = 3
	mismatchSignificantThreshold = 2
)

// detectCrossLevelInsights scans the unbucketed record set for patterns
// spanning levels: probable level mismatches, error texts recurring across
// levels, and students ready to advance.
func detectCrossLevelInsights(
	users map[string]models.User,
	summariesByUser map[string][]models.SessionSummary,
	items []models.ReviewItem,
) dto.CrossLevelInsights {
	insights := emptyCrossLevelInsights()

	itemsByUser := make(map[string][]models.ReviewItem)
	for _, item := range items {
		itemsByUser[item.UserID] = append(itemsByUser[item.UserID], item)
	}

	for _, userID := range sortedKeys(itemsByUser) {
		userItems := itemsByUser[userID]
		if len(userItems) < mismatchItemThreshold {
			continue
		}
		significant := 0
		for _, item := range userItems {
			if item.Severity >= models.SignificantSeverity {
				significant++
			}
		}
		if significant < mismatchSignificantThreshold {
			continue
		}
		user := users[userID]
		insights.LevelMismatches = append(insights.LevelMismatches, dto.LevelMismatch{
			UserID:       userID,
			DisplayName:  user.Name(),
			CurrentLevel: string(user.Level()),
			Evidence:     fmt.Sprintf("%d significant struggles", significant),
		})
	}

	insights.UniversalStruggles = detectUniversalStruggles(users, items)
	insights.AdvancementCandidates = detectAdvancementCandidates(users, summariesByUser)

	return insights
}

// detectUniversalStruggles reports error texts seen at 2+ distinct levels,
// broadest first.
func detectUniversalStruggles(users map[string]models.User, items []models.ReviewItem) []dto.UniversalStruggle {
	levelsByText := make(map[string]map[models.Level]struct{})
	countByText := make(map[string]int)
	for _, item := range items {
		text := item.DisplayText(struggleTextLimit)
		if text == "" {
			continue
		}
		if levelsByText[text] == nil {
			levelsByText[text] = make(map[models.Level]struct{})
		}
		levelsByText[text][users[item.UserID].Level()] = struct{}{}
		countByText[text]++
	}

	var result []dto.UniversalStruggle
	for text, levels := range levelsByText {
		if len(levels) < 2 {
			continue
		}
		affected := make([]string, 0, len(levels))
		for level := range levels {
			affected = append(affected, string(level))
		}
		sort.Strings(affected)
		result = append(result, dto.UniversalStruggle{
			Text:           text,
			AffectedLevels: affected,
			TotalCount:     countByText[text],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if len(result[i].AffectedLevels) != len(result[j].AffectedLevels) {
			return len(result[i].AffectedLevels) > len(result[j].AffectedLevels)
		}
		return result[i].Text < result[j].Text
	})
	if len(result) > maxUniversalStruggles {
		result = result[:maxUniversalStruggles]
	}
	if result == nil {
		result = []dto.UniversalStruggle{}
	}
	return result
}

// detectAdvancementCandidates mirrors the per-student advancement flag
// across all levels, strongest performers first.
func detectAdvancementCandidates(users map[string]models.User, summariesByUser map[string][]models.SessionSummary) []dto.AdvancementCandidate {
	candidates := []dto.AdvancementCandidate{}
	for _, userID := range sortedKeys(summariesByUser) {
		summaries := summariesByUser[userID]
		if len(summaries) < advancementMinSessions {
			continue
		}
		avg := averageStars(summaries)
		if avg < advancementMinAvgStars {
			continue
		}
		user := users[userID]
		candidates = append(candidates, dto.AdvancementCandidate{
			UserID:       userID,
			DisplayName:  user.Name(),
			CurrentLevel: string(user.Level()),
			SessionCount: len(summaries),
			AvgStars:     round1(avg),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].AvgStars != candidates[j].AvgStars {
			return candidates[i].AvgStars > candidates[j].AvgStars
		}
		return candidates[i].UserID < candidates[j].UserID
	})
	return candidates
}

func emptyCrossLevelInsights() dto.CrossLevelInsights {
	return dto.CrossLevelInsights{
		AdvancementCandidates: []dto.AdvancementCandidate{},
		LevelMismatches:       []dto.LevelMismatch{},
		UniversalStruggles:    []dto.UniversalStruggle{},
	}
}
