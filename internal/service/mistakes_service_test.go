package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/models"
)

type fakeRosterStore struct {
	students []models.User
	err      error
}

func (f *fakeRosterStore) ListByTeacher(context.Context, string) ([]models.User, error) {
	return f.students, f.err
}

type fakeMistakeItemStore struct {
	byUser map[string][]models.ReviewItem
	errFor map[string]error
}

func (f *fakeMistakeItemStore) ListByUser(_ context.Context, userID string, window models.Window) ([]models.ReviewItem, error) {
	if err := f.errFor[userID]; err != nil {
		return nil, err
	}
	var out []models.ReviewItem
	for _, item := range f.byUser[userID] {
		if window.Contains(item.CreatedAt) {
			out = append(out, item)
		}
	}
	return out, nil
}

func newTestMistakesService(roster *fakeRosterStore, items *fakeMistakeItemStore) *MistakesService {
	return NewMistakesService(roster, items, nil).WithClock(func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	})
}

func TestGetClassMistakesSummaryAndOrder(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	roster := &fakeRosterStore{students: []models.User{
		{ID: "u1", DisplayName: "Ana"},
		{ID: "u2"},
	}}
	items := &fakeMistakeItemStore{byUser: map[string][]models.ReviewItem{
		"u1": {
			{ID: "m1", ErrorType: models.ErrorTypeGrammar, UserSentence: "I has", Correction: "I have", CreatedAt: now.Add(-48 * time.Hour)},
			{ID: "m2", ErrorType: models.ErrorTypePronunciation, Correction: "comfortable", CreatedAt: now.Add(-2 * time.Hour), AudioURL: "gs://x.mp3"},
		},
		"u2": {
			{ID: "m3", ErrorType: "Slang", Correction: "cool", CreatedAt: now.Add(-24 * time.Hour)},
			{ID: "m4", ErrorType: models.ErrorTypeCultural, Correction: "small talk", CreatedAt: now.Add(-240 * time.Hour)},
		},
	}}
	svc := newTestMistakesService(roster, items)

	resp, err := svc.GetClassMistakes(context.Background(), "t1", models.PeriodWeek)
	require.NoError(t, err)

	assert.Equal(t, models.PeriodWeek, resp.Period)
	assert.Equal(t, 3, resp.Total)

	// m4 is outside the 7 day window; the Slang item counts as vocabulary.
	assert.Equal(t, 1, resp.Summary.Grammar)
	assert.Equal(t, 1, resp.Summary.Pronunciation)
	assert.Equal(t, 1, resp.Summary.Vocabulary)
	assert.Equal(t, 0, resp.Summary.Cultural)

	require.Len(t, resp.Mistakes, 3)
	assert.Equal(t, "m2", resp.Mistakes[0].ID)
	assert.Equal(t, "m3", resp.Mistakes[1].ID)
	assert.Equal(t, "m1", resp.Mistakes[2].ID)

	assert.Equal(t, "Ana", resp.Mistakes[0].StudentName)
	assert.Equal(t, "Student", resp.Mistakes[1].StudentName)
	assert.Equal(t, "gs://x.mp3", resp.Mistakes[0].AudioURL)
	assert.Equal(t, now.Add(-2*time.Hour).Format(time.RFC3339), resp.Mistakes[0].CreatedAt)
}

func TestGetClassMistakesSkipsFailedStudent(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	roster := &fakeRosterStore{students: []models.User{{ID: "u1"}, {ID: "u2"}}}
	items := &fakeMistakeItemStore{
		byUser: map[string][]models.ReviewItem{
			"u2": {{ID: "m1", ErrorType: models.ErrorTypeGrammar, CreatedAt: now.Add(-time.Hour)}},
		},
		errFor: map[string]error{"u1": errors.New("unavailable")},
	}
	svc := newTestMistakesService(roster, items)

	resp, err := svc.GetClassMistakes(context.Background(), "t1", models.PeriodWeek)
	require.NoError(t, err)
	require.Len(t, resp.Mistakes, 1)
	assert.Equal(t, "m1", resp.Mistakes[0].ID)
}

func TestGetClassMistakesInvalidPeriod(t *testing.T) {
	svc := newTestMistakesService(&fakeRosterStore{}, &fakeMistakeItemStore{})

	_, err := svc.GetClassMistakes(context.Background(), "t1", "fortnight")
	require.Error(t, err)
}

func TestExportDatasetRows(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	roster := &fakeRosterStore{students: []models.User{{ID: "u1", DisplayName: "Ana"}}}
	items := &fakeMistakeItemStore{byUser: map[string][]models.ReviewItem{
		"u1": {{
			ID:           "m1",
			ErrorType:    models.ErrorTypeGrammar,
			UserSentence: "I has been",
			Correction:   "I have been",
			Explanation:  "present perfect takes have",
			CreatedAt:    now.Add(-time.Hour),
		}},
	}}
	svc := newTestMistakesService(roster, items)

	resp, err := svc.GetClassMistakes(context.Background(), "t1", models.PeriodWeek)
	require.NoError(t, err)

	dataset := svc.ExportDataset(resp)
	assert.Equal(t, []string{"Student", "Error Type", "Sentence", "Correction", "Explanation", "Date"}, dataset.Headers)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "Ana", dataset.Rows[0]["Student"])
	assert.Equal(t, "I have been", dataset.Rows[0]["Correction"])
	assert.Equal(t, now.Add(-time.Hour).Format(time.RFC3339), dataset.Rows[0]["Date"])
}
