package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

func TestCreateAwardsReporterAndNotifiesAdmins(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	reporter := f.users.Add("ana", models.RoleUser)

	view, err := svc.Create(context.Background(), validInput(models.TypeLighting, -23.55, -46.63), reporter)
	require.NoError(t, err)

	assert.Equal(t, models.StatusNew, view.Status)
	assert.Equal(t, models.SeverityMedium, view.Severity)
	assert.Equal(t, models.PriorityMedium, view.Priority)
	require.NotNil(t, view.Reporter)
	assert.Equal(t, "ana", view.Reporter.Name)
	assert.NotNil(t, f.occurrences.Get(view.ID))

	stats := f.users.Get(reporter.ID).Stats
	assert.Equal(t, 1, stats.ReportsCount)
	assert.Equal(t, 10, stats.Points)
	assert.Equal(t, 1, stats.Level)

	admins := f.fx.notified(NotificationNewOccurrence)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].admins)
	assert.Equal(t, []EventType{EventOccurrenceCreated}, f.fx.eventTypes())
	require.Len(t, f.fx.activity, 1)
	assert.Equal(t, models.ActivityReport, f.fx.activity[0].Type)
	assert.Equal(t, 1, f.fx.invalidations)
}

func TestCreateIgnoresRequestedStatus(t *testing.T) {
	f := newFixture()
	in := validInput(models.TypePothole, 1, 1)
	in.Status = models.StatusResolved

	view, err := f.occurrenceService(true).Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, view.Status)
	assert.Nil(t, view.Reporter)
	assert.Nil(t, view.ReportedBy)
}

func TestCreateAnonymousWhenDisallowed(t *testing.T) {
	f := newFixture()
	_, err := f.occurrenceService(false).Create(context.Background(), validInput(models.TypeTrash, 0, 0), nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCreateRejectsProhibitedLanguage(t *testing.T) {
	f := newFixture()
	in := validInput(models.TypeTrash, 0, 0)
	in.Description = "I am going to kill the guy who dumped this"

	_, err := f.occurrenceService(true).Create(context.Background(), in, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, f.occurrences.Len())
}

func seed(t *testing.T, svc *OccurrenceService, reporter *models.User, inputs ...models.OccurrenceInput) []*models.OccurrenceView {
	t.Helper()
	var out []*models.OccurrenceView
	for _, in := range inputs {
		v, err := svc.Create(context.Background(), in, reporter)
		require.NoError(t, err)
		out = append(out, v)
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	reporter := f.users.Add("bia", models.RoleUser)
	seed(t, svc, reporter,
		validInput(models.TypePothole, -23.50, -46.60),
		validInput(models.TypePothole, -22.90, -43.20),
		validInput(models.TypeLighting, -23.51, -46.61),
	)
	ctx := context.Background()

	page, err := svc.List(ctx, ListQuery{Type: "pothole", Page: NewPageRequest("", "1", DefaultPageSize)})
	require.NoError(t, err)
	require.Len(t, page.Occurrences, 1)
	assert.Equal(t, int64(2), page.Pagination.TotalRecords)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
	assert.Equal(t, -22.90, page.Occurrences[0].Location.Lat, "newest first")
	require.NotNil(t, page.Occurrences[0].Reporter)

	page, err = svc.List(ctx, ListQuery{Type: "all", BBox: "-47,-24,-46,-23", Page: NewPageRequest("", "", DefaultPageSize)})
	require.NoError(t, err)
	assert.Len(t, page.Occurrences, 2)

	_, err = svc.List(ctx, ListQuery{BBox: "-47,-24,-46", Page: NewPageRequest("", "", DefaultPageSize)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListByReporter(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	a := f.users.Add("caio", models.RoleUser)
	b := f.users.Add("duda", models.RoleUser)
	seed(t, svc, a, validInput(models.TypeOther, 1, 1), validInput(models.TypeOther, 2, 2))
	seed(t, svc, b, validInput(models.TypeOther, 3, 3))

	page, err := svc.ListByReporter(context.Background(), a.ID.Hex(), NewPageRequest("", "", DefaultPageSize))
	require.NoError(t, err)
	assert.Len(t, page.Occurrences, 2)

	_, err = svc.ListByReporter(context.Background(), "nope", NewPageRequest("", "", DefaultPageSize))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGet(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	created := seed(t, svc, nil, validInput(models.TypeSignage, 5, 5))[0]

	view, err := svc.Get(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created.Title, view.Title)
	assert.Empty(t, view.Confirmations)

	_, err = svc.Get(context.Background(), "123")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Get(context.Background(), "65f0c0ffee0000000000beef")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestImagesAlwaysRenderAsArray(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	ctx := context.Background()

	o := &models.Occurrence{Type: models.TypeTrash, Title: "Overflowing bin", Status: models.StatusNew, CreatedAt: time.Now()}
	o.ID = primitive.NewObjectID()
	o.Location = models.GeoPoint{Lat: 1, Lng: 1}
	require.NoError(t, f.occurrences.Create(ctx, o))
	require.Nil(t, f.occurrences.Get(o.ID).Images)

	view, err := svc.Get(ctx, o.ID.Hex())
	require.NoError(t, err)
	body, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"images":[]`)

	page, err := svc.List(ctx, ListQuery{Page: PageRequest{Page: 1, Limit: 10}})
	require.NoError(t, err)
	require.Len(t, page.Occurrences, 1)
	body, err = json.Marshal(page.Occurrences[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"images":[]`)
}

func TestUpdatePermissionsAndResolution(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	owner := f.users.Add("eva", models.RoleUser)
	stranger := f.users.Add("fabio", models.RoleUser)
	mod := f.users.Add("gil", models.RoleModerator)
	created := seed(t, svc, owner, validInput(models.TypePothole, 1, 1))[0]
	ctx := context.Background()

	in := validInput(models.TypePothole, 1, 1)
	in.Title = "Huge pothole downtown"
	_, err := svc.Update(ctx, created.ID.Hex(), in, stranger)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	view, err := svc.Update(ctx, created.ID.Hex(), in, owner)
	require.NoError(t, err)
	assert.Equal(t, "Huge pothole downtown", view.Title)
	assert.Nil(t, view.ResolvedAt)

	in.Status = models.StatusResolved
	view, err = svc.Update(ctx, created.ID.Hex(), in, mod)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, view.Status)
	require.NotNil(t, view.ResolvedAt)

	resolved := f.fx.notified(NotificationOccurrenceResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, owner.ID, resolved[0].userID)
	assert.Contains(t, f.fx.eventTypes(), EventOccurrenceResolved)

	in.Status = models.StatusInProgress
	view, err = svc.Update(ctx, created.ID.Hex(), in, mod)
	require.NoError(t, err)
	assert.Nil(t, view.ResolvedAt)

	_, err = svc.Update(ctx, "65f0c0ffee0000000000beef", in, mod)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteRemovesConfirmations(t *testing.T) {
	f := newFixture()
	svc := f.occurrenceService(true)
	confirmSvc := f.confirmationService("")
	owner := f.users.Add("hugo", models.RoleUser)
	mod := f.users.Add("iris", models.RoleModerator)
	other := f.users.Add("joao", models.RoleUser)
	created := seed(t, svc, owner, validInput(models.TypeTrash, 1, 1))[0]
	ctx := context.Background()

	_, err := confirmSvc.Confirm(ctx, created.ID.Hex(), other, "", models.ConfirmationInput{})
	require.NoError(t, err)

	err = svc.Delete(ctx, created.ID.Hex(), mod)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "moderators may edit but not delete")
	assert.Equal(t, "Not authorized to delete this occurrence", apperr.Message(err))

	require.NoError(t, svc.Delete(ctx, created.ID.Hex(), owner))
	assert.Nil(t, f.occurrences.Get(created.ID))
	assert.Zero(t, f.confirmations.Len())
	assert.Contains(t, f.fx.eventTypes(), EventOccurrenceDeleted)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID.Hex(), owner), apperr.ErrNotFound)
}

type fakeUploader struct {
	folder string
	size   int
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, folder string) (string, string, error) {
	u.folder = folder
	u.size = len(data)
	return "https://img.example/" + folder + ".jpg", folder + "/abc", nil
}

func TestAttachImage(t *testing.T) {
	f := newFixture()
	owner := f.users.Add("kaio", models.RoleUser)
	stranger := f.users.Add("lia", models.RoleUser)
	ctx := context.Background()

	noUploads := f.occurrenceService(true)
	created := seed(t, noUploads, owner, validInput(models.TypePothole, 1, 1))[0]
	_, err := noUploads.AttachImage(ctx, created.ID.Hex(), owner, bytes.NewReader(nil), "a.png")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	up := &fakeUploader{}
	svc := f.occurrenceService(true)
	svc.uploader = up

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(2000, 1000, color.NRGBA{R: 200, A: 255})))

	_, err = svc.AttachImage(ctx, created.ID.Hex(), stranger, bytes.NewReader(buf.Bytes()), "hole.png")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	meta, err := svc.AttachImage(ctx, created.ID.Hex(), owner, bytes.NewReader(buf.Bytes()), "hole.png")
	require.NoError(t, err)
	assert.Equal(t, 1600, meta.Width)
	assert.Equal(t, 800, meta.Height)
	assert.Equal(t, "hole.png", meta.OriginalName)
	assert.Nil(t, meta.TakenAt)
	assert.Equal(t, imageFolder+"/"+created.ID.Hex(), up.folder)
	assert.Positive(t, up.size)
	assert.Len(t, f.occurrences.Get(created.ID).Images, 1)

	_, err = svc.AttachImage(ctx, created.ID.Hex(), owner, bytes.NewReader([]byte("not an image")), "x.txt")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
