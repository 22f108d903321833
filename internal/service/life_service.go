package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lifecal/lifecal-api/internal/models"
	appErrors "github.com/lifecal/lifecal-api/pkg/errors"
)

const (
	averageLifespanYears    = 80
	optimisticLifespanYears = 100

	weeksPerYear = 52
)

type lifeUserLoader interface {
	Get(ctx context.Context, userID int64) (*models.User, error)
}

// LifeTimeline summarises a life in weeks for the timeline grid.
type LifeTimeline struct {
	Birthdate      time.Time             `json:"birthdate"`
	LifespanOption models.LifespanOption `json:"lifespan_option"`
	LifespanYears  int                   `json:"lifespan_years"`
	TotalWeeks     int                   `json:"total_weeks"`
	WeeksElapsed   int                   `json:"weeks_elapsed"`
	WeeksRemaining int                   `json:"weeks_remaining"`
}

// LifeService renders the week-grid view of a user's expected lifespan.
type LifeService struct {
	users                lifeUserLoader
	defaultLifespanYears int
	logger               *zap.Logger
	now                  func() time.Time
}

// NewLifeService constructs a LifeService. defaultLifespanYears applies
// when the profile has no lifespan option set.
func NewLifeService(users lifeUserLoader, defaultLifespanYears int, logger *zap.Logger) *LifeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLifespanYears <= 0 {
		defaultLifespanYears = averageLifespanYears
	}
	return &LifeService{
		users:                users,
		defaultLifespanYears: defaultLifespanYears,
		logger:               logger,
		now:                  time.Now,
	}
}

// Timeline computes the timeline for the given user. A profile without a
// birthdate cannot be placed on the grid and is rejected.
func (s *LifeService) Timeline(ctx context.Context, userID int64) (*LifeTimeline, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Birthdate == nil {
		return nil, appErrors.Clone(appErrors.ErrMissingBirthdate, "set a birthdate on your profile first")
	}

	option := models.LifespanAverage
	years := s.defaultLifespanYears
	if user.LifespanOption != nil {
		option = *user.LifespanOption
		switch option {
		case models.LifespanOptimistic:
			years = optimisticLifespanYears
		default:
			years = averageLifespanYears
		}
	}

	totalWeeks := years * weeksPerYear
	elapsed := int(s.now().Sub(*user.Birthdate).Hours() / (24 * 7))
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalWeeks {
		elapsed = totalWeeks
	}

	return &LifeTimeline{
		Birthdate:      *user.Birthdate,
		LifespanOption: option,
		LifespanYears:  years,
		TotalWeeks:     totalWeeks,
		WeeksElapsed:   elapsed,
		WeeksRemaining: totalWeeks - elapsed,
	}, nil
}
