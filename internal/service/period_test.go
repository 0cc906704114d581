package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndtutor/tutor-api/internal/models"
)

func TestResolvePeriodWeek(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	current, previous, err := ResolvePeriod(now, models.PeriodWeek)
	require.NoError(t, err)
	require.NotNil(t, previous)

	assert.Equal(t, now, current.End)
	assert.Equal(t, now.AddDate(0, 0, -7), current.Start)
	assert.Equal(t, current.Start, previous.End)
	assert.Equal(t, now.AddDate(0, 0, -14), previous.Start)
}

func TestResolvePeriodMonth(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	current, previous, err := ResolvePeriod(now, models.PeriodMonth)
	require.NoError(t, err)
	require.NotNil(t, previous)

	assert.Equal(t, 30, current.Days())
	assert.Equal(t, current.Start, previous.End)
	assert.Equal(t, 30, previous.Days())
}

func TestResolvePeriodAllTime(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	current, previous, err := ResolvePeriod(now, models.PeriodAllTime)
	require.NoError(t, err)

	assert.Nil(t, previous)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), current.Start)
	assert.Equal(t, now, current.End)
}

func TestResolvePeriodInvalid(t *testing.T) {
	_, _, err := ResolvePeriod(time.Now(), "fortnight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid period")
}
