package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
	"github.com/ndtutor/tutor-api/pkg/config"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
)

// MissionStore lists lesson templates.
type MissionStore interface {
	ListByTeacher(ctx context.Context, teacherID, level string) ([]models.Mission, error)
}

// SessionStore lists completed sessions for mission batches.
type SessionStore interface {
	ListByMissions(ctx context.Context, missionIDs []string, window models.Window) ([]models.Session, error)
}

// UserStore reads profile documents.
type UserStore interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]models.User, error)
}

// SummaryStore lists per-user session summaries.
type SummaryStore interface {
	ListByUser(ctx context.Context, userID string, window models.Window) ([]models.SessionSummary, error)
}

// ReviewItemStore reads per-user review items for aggregation.
type ReviewItemStore interface {
	ListByUser(ctx context.Context, userID string, window models.Window) ([]models.ReviewItem, error)
	CountMastered(ctx context.Context, userID string) (int, error)
}

// UsageStore sums token consumption per user.
type UsageStore interface {
	SumByUser(ctx context.Context, userID string, window models.Window) (models.UsageTotals, error)
}

// AnalyticsService aggregates class activity into the teacher analytics
// payload. All reads are best effort per student: one student's failing
// sub-query drops that student's records, never the whole request.
type AnalyticsService struct {
	missions MissionStore
	sessions SessionStore
	users    UserStore
	summary  SummaryStore
	items    ReviewItemStore
	usage    UsageStore
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger

	cacheTTL time.Duration
	parallel int
	rates    config.CostsConfig

	now func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(
	missions MissionStore,
	sessions SessionStore,
	users UserStore,
	summary SummaryStore,
	items ReviewItemStore,
	usage UsageStore,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	analyticsCfg config.AnalyticsConfig,
	rates config.CostsConfig,
) *AnalyticsService {
	parallel := analyticsCfg.FetchParallel
	if parallel <= 0 {
		parallel = 8
	}
	return &AnalyticsService{
		missions: missions,
		sessions: sessions,
		users:    users,
		summary:  summary,
		items:    items,
		usage:    usage,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cacheTTL: analyticsCfg.CacheTTL,
		parallel: parallel,
		rates:    rates,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// GetTeacherAnalytics is the main analytics entry point. The bool reports a
// cache hit.
func (s *AnalyticsService) GetTeacherAnalytics(ctx context.Context, teacherID, period, level string) (*dto.AnalyticsResponse, bool, error) {
	if level != "" && level != "all" && !models.Level(level).Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid level %q", level))
	}
	now := s.now()
	current, previous, err := ResolvePeriod(now, period)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("analytics:%s:%s:%s", teacherID, period, level)
	var cached dto.AnalyticsResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	queryStart := time.Now()
	missions, err := s.missions.ListByTeacher(ctx, teacherID, level)
	s.metrics.ObserveStoreQuery("missions_by_teacher", time.Since(queryStart))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load missions")
	}

	missionMap := make(map[string]models.Mission, len(missions))
	missionIDs := make([]string, 0, len(missions))
	for _, m := range missions {
		missionMap[m.ID] = m
		missionIDs = append(missionIDs, m.ID)
	}

	if len(missionIDs) == 0 {
		return s.emptyResponse(period, now), false, nil
	}

	queryStart = time.Now()
	sessions, err := s.sessions.ListByMissions(ctx, missionIDs, current)
	s.metrics.ObserveStoreQuery("sessions_by_missions", time.Since(queryStart))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	var prevSessions []models.Session
	if previous != nil {
		queryStart = time.Now()
		prevSessions, err = s.sessions.ListByMissions(ctx, missionIDs, *previous)
		s.metrics.ObserveStoreQuery("sessions_by_missions", time.Since(queryStart))
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous sessions")
		}
	}

	userIDs := distinctUserIDs(sessions)
	queryStart = time.Now()
	users, err := s.users.GetMany(ctx, userIDs)
	s.metrics.ObserveStoreQuery("users_get_many", time.Since(queryStart))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}

	bundle := s.fetchPerUser(ctx, userIDs, current, previous)

	byLevel := aggregateByLevel(missionMap, sessions, prevSessions, users, bundle, now)
	totals := calculateTotals(byLevel)
	cross := detectCrossLevelInsights(users, bundle.summaries, bundle.items)
	costs, studentCosts := s.aggregateCosts(ctx, userIDs, users, current, period)

	resp := &dto.AnalyticsResponse{
		Period:             period,
		GeneratedAt:        now.Format(time.RFC3339),
		ByLevel:            byLevel,
		Totals:             totals,
		CrossLevelInsights: cross,
		Costs:              costs,
		StudentCosts:       studentCosts,
	}

	if err := s.cache.Set(ctx, cacheKey, resp, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("analytics cache write failed", zap.String("teacher", teacherID), zap.Error(err))
	}

	return resp, false, nil
}

// recordBundle holds the per-user sub-query results for one request.
type recordBundle struct {
	summaries     map[string][]models.SessionSummary
	prevSummaries map[string][]models.SessionSummary
	items         []models.ReviewItem
	mastered      map[string]int
}

// fetchPerUser issues the per-user sub-queries concurrently, bounded by the
// configured fan-out. A failing user is logged and skipped.
func (s *AnalyticsService) fetchPerUser(ctx context.Context, userIDs []string, current models.Window, previous *models.Window) recordBundle {
	bundle := recordBundle{
		summaries:     make(map[string][]models.SessionSummary),
		prevSummaries: make(map[string][]models.SessionSummary),
		mastered:      make(map[string]int),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			start := time.Now()
			summaries, err := s.summary.ListByUser(gctx, userID, current)
			s.metrics.ObserveStoreQuery("summaries_by_user", time.Since(start))
			if err != nil {
				s.warnUser("session summaries", userID, err)
				return nil
			}

			var prevSummaries []models.SessionSummary
			if previous != nil {
				start = time.Now()
				prevSummaries, err = s.summary.ListByUser(gctx, userID, *previous)
				s.metrics.ObserveStoreQuery("summaries_by_user", time.Since(start))
				if err != nil {
					s.warnUser("previous session summaries", userID, err)
					prevSummaries = nil
				}
			}

			start = time.Now()
			items, err := s.items.ListByUser(gctx, userID, current)
			s.metrics.ObserveStoreQuery("review_items_by_user", time.Since(start))
			if err != nil {
				s.warnUser("review items", userID, err)
				items = nil
			}

			start = time.Now()
			mastered, err := s.items.CountMastered(gctx, userID)
			s.metrics.ObserveStoreQuery("mastered_count_by_user", time.Since(start))
			if err != nil {
				s.warnUser("mastered count", userID, err)
				mastered = 0
			}

			mu.Lock()
			defer mu.Unlock()
			bundle.summaries[userID] = summaries
			if prevSummaries != nil {
				bundle.prevSummaries[userID] = prevSummaries
			}
			bundle.items = append(bundle.items, items...)
			bundle.mastered[userID] = mastered
			return nil
		})
	}

	_ = g.Wait()

	// Merge order of the items slice depends on goroutine scheduling; pin it
	// down so aggregation output is reproducible.
	sort.SliceStable(bundle.items, func(i, j int) bool {
		if bundle.items[i].UserID != bundle.items[j].UserID {
			return bundle.items[i].UserID < bundle.items[j].UserID
		}
		return bundle.items[i].ID < bundle.items[j].ID
	})

	return bundle
}

func (s *AnalyticsService) warnUser(what, userID string, err error) {
	if s.logger != nil {
		s.logger.Warn("per-user fetch failed, continuing with partial data",
			zap.String("what", what), zap.String("user", userID), zap.Error(err))
	}
}

func (s *AnalyticsService) emptyResponse(period string, now time.Time) *dto.AnalyticsResponse {
	return &dto.AnalyticsResponse{
		Period:             period,
		GeneratedAt:        now.Format(time.RFC3339),
		ByLevel:            map[string]dto.LevelBlock{},
		Totals:             dto.Totals{},
		CrossLevelInsights: emptyCrossLevelInsights(),
		StudentCosts:       []dto.StudentCost{},
	}
}

func distinctUserIDs(sessions []models.Session) []string {
	seen := make(map[string]struct{}, len(sessions))
	var ids []string
	for _, session := range sessions {
		if session.UserID == "" {
			continue
		}
		if _, ok := seen[session.UserID]; ok {
			continue
		}
		seen[session.UserID] = struct{}{}
		ids = append(ids, session.UserID)
	}
	sort.Strings(ids)
	return ids
}
