package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

func TestProfileIncludesRecentOccurrences(t *testing.T) {
	f := newFixture()
	u := f.users.Add("paula", models.RoleUser)
	inputs := make([]models.OccurrenceInput, 12)
	for i := range inputs {
		inputs[i] = validInput(models.TypePothole, float64(i), 0)
	}
	seed(t, f.occurrenceService(true), u, inputs...)

	svc := NewUserService(f.users, f.occurrences)
	p, err := svc.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "paula", p.User.Name)
	assert.Equal(t, 120, p.User.Stats.Points)
	assert.Equal(t, 2, p.User.Stats.Level)
	require.Len(t, p.RecentOccurrences, 10)
	assert.Equal(t, 11.0, p.RecentOccurrences[0].Location.Lat)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	u := f.users.Add("rafa", models.RoleUser)
	svc := NewUserService(f.users, f.occurrences)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, u.ID, models.ProfileUpdate{
		Name:    ptr("  Rafael "),
		Profile: &models.Profile{Bio: "Cyclist", Location: models.Location{City: "Recife"}},
		Preferences: &models.PreferencesInput{
			Notifications: &models.NotificationPreferencesInput{Email: ptr(false)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rafael", updated.Name)
	assert.Equal(t, "Recife", updated.Profile.Location.City)
	assert.False(t, updated.Preferences.Notifications.Email)
	assert.True(t, updated.Preferences.Notifications.Push)
	assert.Equal(t, models.RoleUser, updated.Role)

	_, err = svc.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Name: ptr(" x ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUserLeaderboardDefaultsToTwenty(t *testing.T) {
	f := newFixture()
	for i := 0; i < 25; i++ {
		f.users.Add(string(rune('a'+i)), models.RoleUser)
	}
	board, err := NewUserService(f.users, f.occurrences).Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, board, UserLeaderboardSize)
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, 1, e.Level)
	}
}
