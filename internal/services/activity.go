package services

import (
	"context"
	"time"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

const (
	defaultInsightsDays = 30
	maxInsightsDays     = 365
	topContributors     = 10
)

// InsightsService reads the activity ledger for the admin dashboard.
type InsightsService struct {
	activity repository.ActivityRepository
}

func NewInsightsService(activity repository.ActivityRepository) *InsightsService {
	return &InsightsService{activity: activity}
}

// Insights returns daily activity and top contributors for the last days days.
func (s *InsightsService) Insights(ctx context.Context, days int) (*models.Insights, error) {
	if s == nil || s.activity == nil {
		return nil, apperr.Unavailable("Activity ledger is not configured")
	}
	if days <= 0 {
		days = defaultInsightsDays
	}
	if days > maxInsightsDays {
		days = maxInsightsDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	daily, err := s.activity.Daily(ctx, since)
	if err != nil {
		return nil, apperr.Internal("Failed to load daily activity", err)
	}
	top, err := s.activity.TopContributors(ctx, since, topContributors)
	if err != nil {
		return nil, apperr.Internal("Failed to load top contributors", err)
	}
	return &models.Insights{Days: days, Daily: daily, TopContributors: top}, nil
}
