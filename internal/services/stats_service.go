package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

const (
	recentActivitySize = 5
	hotspotCount       = 5
)

type Overview struct {
	TotalReported      int64                   `json:"totalReported"`
	TotalResolved      int64                   `json:"totalResolved"`
	ActiveUsers        int64                   `json:"activeUsers"`
	TotalConfirmations int64                   `json:"totalConfirmations"`
	ResolutionRate     int                     `json:"resolutionRate"`
	ByType             map[string]int64        `json:"byType"`
	ByStatus           map[string]int64        `json:"byStatus"`
	RecentActivity     []models.OccurrenceView `json:"recentActivity"`
}

type PeriodCounts struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
}

type DashboardOverview struct {
	Reports       PeriodCounts     `json:"reports"`
	Confirmations PeriodCounts     `json:"confirmations"`
	Hotspots      []models.Hotspot `json:"hotspots"`
}

// StatsService computes the public dashboard aggregates.
type StatsService struct {
	occurrences   repository.OccurrenceRepository
	confirmations repository.ConfirmationRepository
	users         repository.UserRepository
	cache         *StatsCache
	views         viewBuilder
	now           func() time.Time
}

// NewStatsService builds the service. cache may be nil.
func NewStatsService(occurrences repository.OccurrenceRepository, confirmations repository.ConfirmationRepository, users repository.UserRepository, cache *StatsCache) *StatsService {
	return &StatsService{
		occurrences:   occurrences,
		confirmations: confirmations,
		users:         users,
		cache:         cache,
		views:         viewBuilder{users: users, confirmations: confirmations},
		now:           time.Now,
	}
}

// ResolutionRate is resolved/total as a rounded percentage, 0 when nothing was reported.
func ResolutionRate(resolved, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(resolved) / float64(total) * 100))
}

func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()
	return cached(ctx, s.cache, "overview", s.computeOverview)
}

func (s *StatsService) computeOverview(ctx context.Context) (*Overview, error) {
	out := &Overview{}
	var recent []models.Occurrence

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalReported, err = s.occurrences.Count(gctx, repository.OccurrenceFilter{})
		return err
	})
	g.Go(func() (err error) {
		out.TotalResolved, err = s.occurrences.Count(gctx, repository.OccurrenceFilter{Status: string(models.StatusResolved)})
		return err
	})
	g.Go(func() (err error) {
		out.ActiveUsers, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalConfirmations, err = s.confirmations.Count(gctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		out.ByType, err = s.occurrences.CountBy(gctx, "type")
		return err
	})
	g.Go(func() (err error) {
		out.ByStatus, err = s.occurrences.CountBy(gctx, "status")
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.occurrences.List(gctx, repository.OccurrenceFilter{}, 0, recentActivitySize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("Failed to compute statistics", err)
	}

	views, err := s.views.many(ctx, recent)
	if err != nil {
		return nil, err
	}
	out.RecentActivity = views
	out.ResolutionRate = ResolutionRate(out.TotalResolved, out.TotalReported)
	return out, nil
}

// Leaderboard ranks users by points, default 10.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()
	if limit <= 0 {
		limit = StatsLeaderboardSize
	}
	return cached(ctx, s.cache, "leaderboard:"+strconv.Itoa(limit), func(ctx context.Context) ([]models.LeaderboardEntry, error) {
		return leaderboard(ctx, s.users, limit, StatsLeaderboardSize)
	})
}

// windows returns the start of today (local midnight), 7 days ago and 30 days ago.
func windows(now time.Time) (today, week, month time.Time) {
	y, m, d := now.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	week = now.AddDate(0, 0, -7)
	month = now.AddDate(0, 0, -30)
	return
}

func (s *StatsService) DashboardOverview(ctx context.Context) (*DashboardOverview, error) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()
	return cached(ctx, s.cache, "dashboard", s.computeDashboard)
}

func (s *StatsService) computeDashboard(ctx context.Context) (*DashboardOverview, error) {
	today, week, month := windows(s.now())
	out := &DashboardOverview{}

	type counter struct {
		since time.Time
		dst   *int64
		fn    func(context.Context, time.Time) (int64, error)
	}
	reports := func(ctx context.Context, since time.Time) (int64, error) {
		return s.occurrences.Count(ctx, repository.OccurrenceFilter{CreatedSince: since})
	}
	counters := []counter{
		{today, &out.Reports.Today, reports},
		{week, &out.Reports.Week, reports},
		{month, &out.Reports.Month, reports},
		{today, &out.Confirmations.Today, s.confirmations.Count},
		{week, &out.Confirmations.Week, s.confirmations.Count},
		{month, &out.Confirmations.Month, s.confirmations.Count},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counters {
		c := c
		g.Go(func() (err error) {
			*c.dst, err = c.fn(gctx, c.since)
			return err
		})
	}
	g.Go(func() (err error) {
		out.Hotspots, err = s.occurrences.Hotspots(gctx, hotspotCount)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("Failed to compute dashboard", err)
	}
	if out.Hotspots == nil {
		out.Hotspots = []models.Hotspot{}
	}
	return out, nil
}
