package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
)

const (
	activeThresholdDays    = 3
	warningThresholdDays   = 7
	advancementMinSessions = 5
	advancementMinAvgStars = 4.5

	maxLessons            = 10
	maxLessonErrors       = 5
	maxStruggles          = 15
	maxUniversalStruggles = 10
	lessonErrorTextLimit  = 40
	struggleTextLimit     = 50

	// Students with no recorded session are maximally stale.
	staleDays = 999
)

type levelBucket struct {
	sessions      []models.Session
	prevSessions  []models.Session
	userIDs       map[string]struct{}
	items         []models.ReviewItem
	summaries     []models.SessionSummary
	prevSummaries []models.SessionSummary
}

// aggregateByLevel buckets records by proficiency level and computes the
// per-level blocks. Sessions follow their mission's target level, review
// items and summaries the owning user's level; both fall back to B1. Levels
// with no sessions and no students are omitted.
func aggregateByLevel(
	missionMap map[string]models.Mission,
	sessions, prevSessions []models.Session,
	users map[string]models.User,
	bundle recordBundle,
	now time.Time,
) map[string]dto.LevelBlock {
	buckets := make(map[models.Level]*levelBucket, len(models.AllLevels))
	for _, level := range models.AllLevels {
		buckets[level] = &levelBucket{userIDs: make(map[string]struct{})}
	}

	for _, session := range sessions {
		level := missionMap[session.MissionID].Level()
		bucket, ok := buckets[level]
		if !ok {
			continue
		}
		bucket.sessions = append(bucket.sessions, session)
		if session.UserID != "" {
			bucket.userIDs[session.UserID] = struct{}{}
		}
	}

	for _, session := range prevSessions {
		level := missionMap[session.MissionID].Level()
		if bucket, ok := buckets[level]; ok {
			bucket.prevSessions = append(bucket.prevSessions, session)
		}
	}

	for _, item := range bundle.items {
		level := users[item.UserID].Level()
		if bucket, ok := buckets[level]; ok {
			bucket.items = append(bucket.items, item)
		}
	}

	for _, userID := range sortedKeys(bundle.summaries) {
		level := users[userID].Level()
		if bucket, ok := buckets[level]; ok {
			bucket.summaries = append(bucket.summaries, bundle.summaries[userID]...)
		}
	}
	for _, userID := range sortedKeys(bundle.prevSummaries) {
		level := users[userID].Level()
		if bucket, ok := buckets[level]; ok {
			bucket.prevSummaries = append(bucket.prevSummaries, bundle.prevSummaries[userID]...)
		}
	}

	byLevel := make(map[string]dto.LevelBlock)
	for _, level := range models.AllLevels {
		bucket := buckets[level]
		if len(bucket.sessions) == 0 && len(bucket.userIDs) == 0 {
			continue
		}

		avgStars := averageStars(bucket.summaries)
		prevAvgStars := averageStars(bucket.prevSummaries)
		minutes := 0.0
		for _, summary := range bucket.summaries {
			minutes += summary.Duration / 60
		}

		mastered := 0
		for userID := range bucket.userIDs {
			mastered += bundle.mastered[userID]
		}

		userIDs := make([]string, 0, len(bucket.userIDs))
		for userID := range bucket.userIDs {
			userIDs = append(userIDs, userID)
		}
		sort.Strings(userIDs)

		byLevel[string(level)] = dto.LevelBlock{
			StudentCount:         len(bucket.userIDs),
			SessionCount:         len(bucket.sessions),
			AvgStars:             round2(avgStars),
			TotalPracticeMinutes: int(math.Round(minutes)),
			WordsMastered:        mastered,
			Trends:               formatTrends(len(bucket.sessions), len(bucket.prevSessions), avgStars, prevAvgStars),
			Lessons:              aggregateLessons(bucket.sessions, missionMap, bucket.items),
			Students:             aggregateStudents(userIDs, users, bundle.summaries, now),
			TopStruggles:         aggregateStruggles(bucket.items),
		}
	}

	return byLevel
}

// averageStars averages non-zero star values. Zero or absent stars are
// excluded from both numerator and denominator.
func averageStars(summaries []models.SessionSummary) float64 {
	sum, count := 0, 0
	for _, summary := range summaries {
		if summary.Stars != 0 {
			sum += summary.Stars
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// formatTrends renders the signed trend strings. A previous count of zero
// special-cases to "+100%" (sessions) or "+<current>" (stars) when there is
// current activity, otherwise a flat zero.
func formatTrends(currSessions, prevSessions int, currStars, prevStars float64) dto.TrendBlock {
	var sessionsTrend string
	switch {
	case prevSessions > 0:
		change := float64(currSessions-prevSessions) / float64(prevSessions) * 100
		sessionsTrend = signedPercent(change)
	case currSessions > 0:
		sessionsTrend = "+100%"
	default:
		sessionsTrend = "0%"
	}

	var starsTrend string
	switch {
	case prevStars > 0:
		starsTrend = signedDelta(currStars - prevStars)
	case currStars > 0:
		starsTrend = signedDelta(currStars)
	default:
		starsTrend = "0"
	}

	return dto.TrendBlock{Sessions: sessionsTrend, AvgStars: starsTrend}
}

type lessonAccum struct {
	completions int
	starSum     int
	starCount   int
	items       []models.ReviewItem
	userIDs     map[string]struct{}
}

// aggregateLessons rolls sessions up per lesson and links review items to
// lessons. Items without a direct lesson link are attributed to the first
// lesson (by lesson id) the student participated in; that heuristic is an
// approximation carried over from the data model, made deterministic by the
// id ordering.
func aggregateLessons(sessions []models.Session, missionMap map[string]models.Mission, items []models.ReviewItem) []dto.LessonStats {
	stats := make(map[string]*lessonAccum)
	for _, session := range sessions {
		if session.MissionID == "" {
			continue
		}
		accum, ok := stats[session.MissionID]
		if !ok {
			accum = &lessonAccum{userIDs: make(map[string]struct{})}
			stats[session.MissionID] = accum
		}
		accum.completions++
		if session.Stars != 0 {
			accum.starSum += session.Stars
			accum.starCount++
		}
		if session.UserID != "" {
			accum.userIDs[session.UserID] = struct{}{}
		}
	}

	missionIDs := make([]string, 0, len(stats))
	for missionID := range stats {
		missionIDs = append(missionIDs, missionID)
	}
	sort.Strings(missionIDs)

	for _, item := range items {
		if item.MissionID != "" {
			if accum, ok := stats[item.MissionID]; ok {
				accum.items = append(accum.items, item)
				continue
			}
		}
		if item.UserID == "" {
			continue
		}
		for _, missionID := range missionIDs {
			if _, ok := stats[missionID].userIDs[item.UserID]; ok {
				stats[missionID].items = append(stats[missionID].items, item)
				break
			}
		}
	}

	lessons := make([]dto.LessonStats, 0, len(stats))
	for _, missionID := range missionIDs {
		accum := stats[missionID]

		avg := 0.0
		if accum.starCount > 0 {
			avg = float64(accum.starSum) / float64(accum.starCount)
		}

		counts := make(map[string]int)
		for _, item := range accum.items {
			text := item.DisplayText(lessonErrorTextLimit)
			if text != "" {
				counts[text]++
			}
		}
		topErrors := make([]dto.LessonStruggle, 0, len(counts))
		for text, count := range counts {
			topErrors = append(topErrors, dto.LessonStruggle{Word: text, Count: count})
		}
		sort.Slice(topErrors, func(i, j int) bool {
			if topErrors[i].Count != topErrors[j].Count {
				return topErrors[i].Count > topErrors[j].Count
			}
			return topErrors[i].Word < topErrors[j].Word
		})
		if len(topErrors) > maxLessonErrors {
			topErrors = topErrors[:maxLessonErrors]
		}

		title := missionMap[missionID].Title
		if title == "" {
			title = "Unknown"
		}

		lessons = append(lessons, dto.LessonStats{
			MissionID:     missionID,
			Title:         title,
			Completions:   accum.completions,
			AvgStars:      round1(avg),
			Warning:       avg < 3.0 && accum.completions >= 3,
			StruggleCount: len(accum.items),
			TopStruggles:  topErrors,
		})
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Completions != lessons[j].Completions {
			return lessons[i].Completions > lessons[j].Completions
		}
		return lessons[i].MissionID < lessons[j].MissionID
	})
	if len(lessons) > maxLessons {
		lessons = lessons[:maxLessons]
	}
	return lessons
}

// aggregateStudents builds the per-student rollup, most recently active
// first.
func aggregateStudents(userIDs []string, users map[string]models.User, summariesByUser map[string][]models.SessionSummary, now time.Time) []dto.StudentStats {
	students := make([]dto.StudentStats, 0, len(userIDs))
	for _, userID := range userIDs {
		user := users[userID]
		summaries := summariesByUser[userID]

		days := staleDays
		var lastActive *string
		if user.LastSessionAt != nil {
			days = int(now.Sub(*user.LastSessionAt).Hours() / 24)
			formatted := user.LastSessionAt.UTC().Format(time.RFC3339)
			lastActive = &formatted
		}

		status := "inactive"
		switch {
		case days <= activeThresholdDays:
			status = "active"
		case days <= warningThresholdDays:
			status = "warning"
		}

		avg := averageStars(summaries)

		students = append(students, dto.StudentStats{
			UserID:               userID,
			DisplayName:          user.Name(),
			LastActive:           lastActive,
			ActivityStatus:       status,
			SessionCount:         len(summaries),
			AvgStars:             round1(avg),
			AdvancementCandidate: len(summaries) >= advancementMinSessions && avg >= advancementMinAvgStars,
		})
	}

	sort.SliceStable(students, func(i, j int) bool {
		li, lj := students[i].LastActive, students[j].LastActive
		switch {
		case li == nil && lj == nil:
			return students[i].UserID < students[j].UserID
		case li == nil:
			return false
		case lj == nil:
			return true
		case *li != *lj:
			return *li > *lj
		default:
			return students[i].UserID < students[j].UserID
		}
	})
	return students
}

type struggleAccum struct {
	count       int
	errorType   string
	severitySum int
}

// aggregateStruggles ranks recurring error texts with a severity bucket
// derived from the averaged 1-10 severity.
func aggregateStruggles(items []models.ReviewItem) []dto.StruggleStats {
	counts := make(map[string]*struggleAccum)
	for _, item := range items {
		text := item.DisplayText(struggleTextLimit)
		if text == "" {
			continue
		}
		accum, ok := counts[text]
		if !ok {
			accum = &struggleAccum{errorType: models.ErrorTypeVocabulary}
			counts[text] = accum
		}
		accum.count++
		accum.errorType = item.ErrorType
		accum.severitySum += item.Severity
	}

	result := make([]dto.StruggleStats, 0, len(counts))
	for text, accum := range counts {
		avgSeverity := float64(accum.severitySum) / float64(accum.count)
		result = append(result, dto.StruggleStats{
			Text:     text,
			Type:     accum.errorType,
			Count:    accum.count,
			Severity: models.SeverityBucket(avgSeverity),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Text < result[j].Text
	})
	if len(result) > maxStruggles {
		result = result[:maxStruggles]
	}
	return result
}

// calculateTotals rolls the level blocks up. The headline star figure is an
// average of per-level averages over levels with a nonzero average, kept for
// parity with the historical dashboards.
func calculateTotals(byLevel map[string]dto.LevelBlock) dto.Totals {
	totals := dto.Totals{}
	starSum, levelCount := 0.0, 0
	for _, block := range byLevel {
		totals.StudentCount += block.StudentCount
		totals.SessionCount += block.SessionCount
		totals.TotalPracticeMinutes += block.TotalPracticeMinutes
		totals.WordsMastered += block.WordsMastered
		if block.AvgStars > 0 {
			starSum += block.AvgStars
			levelCount++
		}
	}
	if levelCount > 0 {
		totals.AvgStars = round2(starSum / float64(levelCount))
	}
	return totals
}

// signedPercent renders a percentage with an explicit sign for zero and
// positive values, e.g. "+12%", "-50%", "+0%".
func signedPercent(change float64) string {
	return fmt.Sprintf("%+.0f%%", change)
}

// signedDelta renders a one-decimal delta with an explicit sign.
func signedDelta(delta float64) string {
	return fmt.Sprintf("%+.1f", delta)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
