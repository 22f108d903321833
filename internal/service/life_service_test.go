package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecal/lifecal-api/internal/models"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
)

type stubUserLoader struct {
	user *models.User
	err  error
}

func (s *stubUserLoader) Get(ctx context.Context, userID int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func newLifeService(user *models.User) *LifeService {
	svc := NewLifeService(&stubUserLoader{user: user}, 0, nil)
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 18, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestLifeServiceTimelineAverage(t *testing.T) {
	birthdate := time.Date(1994, time.March, 18, 0, 0, 0, 0, time.UTC)
	option := models.LifespanAverage
	svc := newLifeService(&models.User{ID: 1, Birthdate: &birthdate, LifespanOption: &option})

	timeline, err := svc.Timeline(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.LifespanAverage, timeline.LifespanOption)
	assert.Equal(t, 80, timeline.LifespanYears)
	assert.Equal(t, 80*52, timeline.TotalWeeks)
	// 30 years on the dot, counting leap days.
	assert.Equal(t, 1565, timeline.WeeksElapsed)
	assert.Equal(t, timeline.TotalWeeks-timeline.WeeksElapsed, timeline.WeeksRemaining)
}

func TestLifeServiceTimelineOptimistic(t *testing.T) {
	birthdate := time.Date(1994, time.March, 18, 0, 0, 0, 0, time.UTC)
	option := models.LifespanOptimistic
	svc := newLifeService(&models.User{ID: 1, Birthdate: &birthdate, LifespanOption: &option})

	timeline, err := svc.Timeline(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 100, timeline.LifespanYears)
	assert.Equal(t, 100*52, timeline.TotalWeeks)
}

func TestLifeServiceTimelineDefaultsWithoutOption(t *testing.T) {
	birthdate := time.Date(1994, time.March, 18, 0, 0, 0, 0, time.UTC)
	svc := newLifeService(&models.User{ID: 1, Birthdate: &birthdate})

	timeline, err := svc.Timeline(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.LifespanAverage, timeline.LifespanOption)
	assert.Equal(t, 80, timeline.LifespanYears)
}

func TestLifeServiceTimelineRequiresBirthdate(t *testing.T) {
	svc := newLifeService(&models.User{ID: 1})

	_, err := svc.Timeline(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingBirthdate.Code, appErrors.FromError(err).Code)
}

func TestLifeServiceTimelineClampsElapsed(t *testing.T) {
	// Birthdate far enough back that the grid is fully spent.
	birthdate := time.Date(1890, time.January, 1, 0, 0, 0, 0, time.UTC)
	option := models.LifespanAverage
	svc := newLifeService(&models.User{ID: 1, Birthdate: &birthdate, LifespanOption: &option})

	timeline, err := svc.Timeline(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, timeline.TotalWeeks, timeline.WeeksElapsed)
	assert.Zero(t, timeline.WeeksRemaining)
}
