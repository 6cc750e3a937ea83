package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/config"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

func TestConfirmByUser(t *testing.T) {
	f := newFixture()
	reporter := f.users.Add("ana", models.RoleUser)
	confirmer := f.users.Add("bruno", models.RoleUser)
	occ := seed(t, f.occurrenceService(true), reporter, validInput(models.TypePothole, 1, 1))[0]
	svc := f.confirmationService(config.AnonConfirmCount)
	ctx := context.Background()

	view, err := svc.Confirm(ctx, occ.ID.Hex(), confirmer, "", models.ConfirmationInput{
		Comment:  "Saw it this morning",
		Location: &models.LocationInput{Lat: ptr(1.0001), Lng: ptr(1.0002)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, view.ConfirmationCount)
	require.Len(t, view.Confirmations, 1)
	assert.Equal(t, models.SeverityMedium, view.Confirmations[0].SeverityAssessment)
	require.NotNil(t, view.Confirmations[0].User)
	assert.Equal(t, "bruno", view.Confirmations[0].User.Name)
	require.NotNil(t, view.Confirmations[0].Location)

	stats := f.users.Get(confirmer.ID).Stats
	assert.Equal(t, 1, stats.ConfirmationsCount)
	assert.Equal(t, 5, stats.Points)

	newConf := f.fx.notified(NotificationNewConfirmation)
	require.Len(t, newConf, 1)
	assert.Equal(t, reporter.ID, newConf[0].userID)
	confirmed := f.fx.notified(NotificationOccurrenceConfirmed)
	require.Len(t, confirmed, 1)
	assert.Equal(t, confirmer.ID, confirmed[0].userID)
	assert.Contains(t, f.fx.eventTypes(), EventOccurrenceConfirmed)

	_, err = svc.Confirm(ctx, occ.ID.Hex(), confirmer, "", models.ConfirmationInput{})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, "You have already confirmed this occurrence", apperr.Message(err))
	assert.Equal(t, 1, f.occurrences.Get(occ.ID).ConfirmationCount)
	assert.Equal(t, 5, f.users.Get(confirmer.ID).Stats.Points)
}

func TestConfirmOwnOccurrenceDoesNotNotifyReporter(t *testing.T) {
	f := newFixture()
	reporter := f.users.Add("carla", models.RoleUser)
	occ := seed(t, f.occurrenceService(true), reporter, validInput(models.TypeTrash, 1, 1))[0]

	_, err := f.confirmationService("").Confirm(context.Background(), occ.ID.Hex(), reporter, "", models.ConfirmationInput{})
	require.NoError(t, err)
	assert.Empty(t, f.fx.notified(NotificationNewConfirmation))
}

func TestConfirmMissingOccurrence(t *testing.T) {
	f := newFixture()
	u := f.users.Add("davi", models.RoleUser)
	svc := f.confirmationService("")

	_, err := svc.Confirm(context.Background(), "65f0c0ffee0000000000beef", u, "", models.ConfirmationInput{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Confirm(context.Background(), "bad", u, "", models.ConfirmationInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAnonymousConfirmationPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("count", func(t *testing.T) {
		f := newFixture()
		reporter := f.users.Add("eli", models.RoleUser)
		occ := seed(t, f.occurrenceService(true), reporter, validInput(models.TypeOther, 1, 1))[0]
		svc := f.confirmationService(config.AnonConfirmCount)

		_, err := svc.Confirm(ctx, occ.ID.Hex(), nil, "10.0.0.1", models.ConfirmationInput{})
		require.NoError(t, err)
		view, err := svc.Confirm(ctx, occ.ID.Hex(), nil, "10.0.0.1", models.ConfirmationInput{})
		require.NoError(t, err)
		assert.Equal(t, 2, view.ConfirmationCount)
		require.Len(t, view.Confirmations, 2)
		assert.Nil(t, view.Confirmations[0].User)
		assert.Len(t, f.fx.notified(NotificationNewConfirmation), 2)
		assert.Empty(t, f.fx.notified(NotificationOccurrenceConfirmed))
	})

	t.Run("uncounted", func(t *testing.T) {
		f := newFixture()
		occ := seed(t, f.occurrenceService(true), nil, validInput(models.TypeOther, 1, 1))[0]
		svc := f.confirmationService(config.AnonConfirmUncounted)

		view, err := svc.Confirm(ctx, occ.ID.Hex(), nil, "", models.ConfirmationInput{})
		require.NoError(t, err)
		assert.Equal(t, 0, view.ConfirmationCount)
		assert.Len(t, view.Confirmations, 1)
	})

	t.Run("per-client", func(t *testing.T) {
		f := newFixture()
		occ := seed(t, f.occurrenceService(true), nil, validInput(models.TypeOther, 1, 1))[0]
		svc := f.confirmationService(config.AnonConfirmPerClient)

		_, err := svc.Confirm(ctx, occ.ID.Hex(), nil, "client-a", models.ConfirmationInput{})
		require.NoError(t, err)
		_, err = svc.Confirm(ctx, occ.ID.Hex(), nil, "client-a", models.ConfirmationInput{})
		assert.ErrorIs(t, err, apperr.ErrDuplicate)
		view, err := svc.Confirm(ctx, occ.ID.Hex(), nil, "client-b", models.ConfirmationInput{})
		require.NoError(t, err)
		assert.Equal(t, 2, view.ConfirmationCount)

		_, err = svc.Confirm(ctx, occ.ID.Hex(), nil, "", models.ConfirmationInput{})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("reject", func(t *testing.T) {
		f := newFixture()
		occ := seed(t, f.occurrenceService(true), nil, validInput(models.TypeOther, 1, 1))[0]
		svc := f.confirmationService(config.AnonConfirmReject)

		_, err := svc.Confirm(ctx, occ.ID.Hex(), nil, "x", models.ConfirmationInput{})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		assert.Zero(t, f.confirmations.Len())
	})
}

func TestListForOccurrenceNewestFirst(t *testing.T) {
	f := newFixture()
	a := f.users.Add("fe", models.RoleUser)
	b := f.users.Add("gabi", models.RoleUser)
	occ := seed(t, f.occurrenceService(true), nil, validInput(models.TypePothole, 1, 1))[0]
	svc := f.confirmationService("")
	ctx := context.Background()

	_, err := svc.Confirm(ctx, occ.ID.Hex(), a, "", models.ConfirmationInput{Comment: "first"})
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, occ.ID.Hex(), b, "", models.ConfirmationInput{Comment: "second", SeverityAssessment: models.SeverityHigh})
	require.NoError(t, err)

	list, err := svc.ListForOccurrence(ctx, occ.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Comment)
	assert.Equal(t, "gabi", list[0].User.Name)
	assert.Equal(t, models.SeverityHigh, list[0].SeverityAssessment)
	assert.Equal(t, "first", list[1].Comment)
}
