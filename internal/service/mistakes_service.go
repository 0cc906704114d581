package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/dto"
	"github.com/ndtutor/tutor-api/internal/models"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/export"
)

// RosterStore lists the students assigned to a teacher.
type RosterStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.User, error)
}

// MistakeItemStore reads review items for the mistakes feed.
type MistakeItemStore interface {
	ListByUser(ctx context.Context, userID string, window models.Window) ([]models.ReviewItem, error)
}

// MistakesService assembles the recent-mistakes feed for a teacher's roster.
type MistakesService struct {
	roster RosterStore
	items  MistakeItemStore
	logger *zap.Logger

	now func() time.Time
}

// NewMistakesService constructs the mistakes service.
func NewMistakesService(roster RosterStore, items MistakeItemStore, logger *zap.Logger) *MistakesService {
	return &MistakesService{
		roster: roster,
		items:  items,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *MistakesService) WithClock(now func() time.Time) *MistakesService {
	s.now = now
	return s
}

// GetClassMistakes returns every roster student's mistakes in the period,
// newest first, plus counts by error type. A student whose read fails is
// skipped.
func (s *MistakesService) GetClassMistakes(ctx context.Context, teacherID, period string) (*dto.MistakesResponse, error) {
	now := s.now()
	window, _, err := ResolvePeriod(now, period)
	if err != nil {
		return nil, err
	}

	students, err := s.roster.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	mistakes := []dto.Mistake{}
	summary := dto.MistakesSummary{}

	for _, student := range students {
		items, err := s.items.ListByUser(ctx, student.ID, window)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("mistakes fetch failed, skipping student",
					zap.String("user", student.ID), zap.Error(err))
			}
			continue
		}
		for _, item := range items {
			mistakes = append(mistakes, dto.Mistake{
				ID:           item.ID,
				StudentID:    student.ID,
				StudentName:  student.Name(),
				ErrorType:    item.ErrorType,
				UserSentence: item.UserSentence,
				Correction:   item.Correction,
				Explanation:  item.Explanation,
				AudioURL:     item.AudioURL,
				CreatedAt:    item.CreatedAt.Format(time.RFC3339),
			})
			switch item.ErrorType {
			case models.ErrorTypeGrammar:
				summary.Grammar++
			case models.ErrorTypePronunciation:
				summary.Pronunciation++
			case models.ErrorTypeCultural:
				summary.Cultural++
			default:
				summary.Vocabulary++
			}
		}
	}

	sort.SliceStable(mistakes, func(i, j int) bool {
		if mistakes[i].CreatedAt != mistakes[j].CreatedAt {
			return mistakes[i].CreatedAt > mistakes[j].CreatedAt
		}
		return mistakes[i].ID < mistakes[j].ID
	})

	return &dto.MistakesResponse{
		Period:   period,
		Total:    len(mistakes),
		Summary:  summary,
		Mistakes: mistakes,
	}, nil
}

// ExportDataset flattens a mistakes feed for CSV or PDF export.
func (s *MistakesService) ExportDataset(resp *dto.MistakesResponse) export.Dataset {
	rows := make([]map[string]string, 0, len(resp.Mistakes))
	for _, m := range resp.Mistakes {
		rows = append(rows, map[string]string{
			"Student":     m.StudentName,
			"Error Type":  m.ErrorType,
			"Sentence":    m.UserSentence,
			"Correction":  m.Correction,
			"Explanation": m.Explanation,
			"Date":        m.CreatedAt,
		})
	}
	return export.Dataset{
		Headers: []string{"Student", "Error Type", "Sentence", "Correction", "Explanation", "Date"},
		Rows:    rows,
	}
}
