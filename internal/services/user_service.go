package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

const (
	profileRecentOccurrences = 10
	UserLeaderboardSize      = 20
	StatsLeaderboardSize     = 10
)

type ProfileView struct {
	User              *models.User        `json:"user"`
	RecentOccurrences []models.Occurrence `json:"recentOccurrences"`
}

// UserService serves profile and ranking operations.
type UserService struct {
	users       repository.UserRepository
	occurrences repository.OccurrenceRepository
}

func NewUserService(users repository.UserRepository, occurrences repository.OccurrenceRepository) *UserService {
	return &UserService{users: users, occurrences: occurrences}
}

// Profile returns the user with their most recent reports.
func (s *UserService) Profile(ctx context.Context, userID primitive.ObjectID) (*ProfileView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.occurrences.List(ctx, repository.OccurrenceFilter{ReportedBy: &user.ID}, 0, profileRecentOccurrences)
	if err != nil {
		return nil, apperr.Internal("Failed to load recent occurrences", err)
	}
	return &ProfileView{User: user, RecentOccurrences: recent}, nil
}

// UpdateProfile applies name, profile and preferences changes only.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if len(name) < 2 {
			return nil, apperr.Validation("Validation failed", apperr.FieldError{Field: "name", Message: "name must be at least 2 characters"})
		}
		patch.Name = &name
	}
	return s.users.UpdateProfile(ctx, userID, patch)
}

// Leaderboard ranks users by points. Rank is the 1-based position in the result.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return leaderboard(ctx, s.users, limit, UserLeaderboardSize)
}

func leaderboard(ctx context.Context, users repository.UserRepository, limit, fallback int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = fallback
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	top, err := users.TopByPoints(ctx, int64(limit))
	if err != nil {
		return nil, apperr.Internal("Failed to load leaderboard", err)
	}
	return rankUsers(top), nil
}

func rankUsers(users []models.User) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			Rank:               i + 1,
			ID:                 u.ID,
			Name:               u.Name,
			Avatar:             u.Profile.Avatar,
			Points:             u.Stats.Points,
			ReportsCount:       u.Stats.ReportsCount,
			ConfirmationsCount: u.Stats.ConfirmationsCount,
			Level:              models.LevelForPoints(u.Stats.Points),
		})
	}
	return entries
}
