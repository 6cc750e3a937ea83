package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

const storeTimeout = 10 * time.Second

// withStoreTimeout bounds a whole service operation against the stores.
func withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

func parseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid id",
			apperr.FieldError{Field: "id", Message: "id must be a valid identifier"})
	}
	return id, nil
}

// viewBuilder populates reporter and confirmer identities with one batched user lookup.
type viewBuilder struct {
	users         repository.UserRepository
	confirmations repository.ConfirmationRepository
}

func (b viewBuilder) summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]*models.UserSummary{}, nil
	}
	m, err := b.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("Failed to load users", err)
	}
	return m, nil
}

// one returns occ with its reporter and all confirmations, newest first.
func (b viewBuilder) one(ctx context.Context, occ *models.Occurrence) (*models.OccurrenceView, error) {
	confs, err := b.confirmations.ListByOccurrence(ctx, occ.ID)
	if err != nil {
		return nil, apperr.Internal("Failed to load confirmations", err)
	}

	var ids []primitive.ObjectID
	if occ.ReportedBy != nil {
		ids = append(ids, *occ.ReportedBy)
	}
	for _, c := range confs {
		if c.UserID != nil {
			ids = append(ids, *c.UserID)
		}
	}
	users, err := b.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &models.OccurrenceView{Occurrence: withImages(*occ), Confirmations: make([]models.ConfirmationView, 0, len(confs))}
	if occ.ReportedBy != nil {
		view.Reporter = users[*occ.ReportedBy]
	}
	for _, c := range confs {
		cv := models.ConfirmationView{Confirmation: c}
		if c.UserID != nil {
			cv.User = users[*c.UserID]
		}
		view.Confirmations = append(view.Confirmations, cv)
	}
	return view, nil
}

// many populates reporters only.
func (b viewBuilder) many(ctx context.Context, occs []models.Occurrence) ([]models.OccurrenceView, error) {
	ids := make([]primitive.ObjectID, 0, len(occs))
	for _, o := range occs {
		if o.ReportedBy != nil {
			ids = append(ids, *o.ReportedBy)
		}
	}
	users, err := b.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.OccurrenceView, 0, len(occs))
	for _, o := range occs {
		v := models.OccurrenceView{Occurrence: withImages(o)}
		if o.ReportedBy != nil {
			v.Reporter = users[*o.ReportedBy]
		}
		views = append(views, v)
	}
	return views, nil
}

func (b viewBuilder) confirmationViews(ctx context.Context, occurrenceID primitive.ObjectID) ([]models.ConfirmationView, error) {
	confs, err := b.confirmations.ListByOccurrence(ctx, occurrenceID)
	if err != nil {
		return nil, apperr.Internal("Failed to load confirmations", err)
	}
	var ids []primitive.ObjectID
	for _, c := range confs {
		if c.UserID != nil {
			ids = append(ids, *c.UserID)
		}
	}
	users, err := b.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConfirmationView, 0, len(confs))
	for _, c := range confs {
		cv := models.ConfirmationView{Confirmation: c}
		if c.UserID != nil {
			cv.User = users[*c.UserID]
		}
		out = append(out, cv)
	}
	return out, nil
}

// withImages keeps "images" a JSON array for documents stored without any.
func withImages(o models.Occurrence) models.Occurrence {
	if o.Images == nil {
		o.Images = []models.ImageMeta{}
	}
	return o
}
