package services

import (
	"context"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

const imageFolder = "inframonitor/occurrences"

type OccurrenceServiceConfig struct {
	Occurrences    repository.OccurrenceRepository
	Confirmations  repository.ConfirmationRepository
	Users          repository.UserRepository
	Tx             repository.TxRunner
	Screener       *ContentScreener
	Uploader       ImageUploader
	Effects        *Effects
	AllowAnonymous bool
}

// OccurrenceService implements reporting, listing and lifecycle of occurrences.
type OccurrenceService struct {
	occurrences    repository.OccurrenceRepository
	confirmations  repository.ConfirmationRepository
	users          repository.UserRepository
	tx             repository.TxRunner
	screener       *ContentScreener
	uploader       ImageUploader
	effects        *Effects
	allowAnonymous bool
	views          viewBuilder
	now            func() time.Time
}

func NewOccurrenceService(cfg OccurrenceServiceConfig) *OccurrenceService {
	return &OccurrenceService{
		occurrences:    cfg.Occurrences,
		confirmations:  cfg.Confirmations,
		users:          cfg.Users,
		tx:             cfg.Tx,
		screener:       cfg.Screener,
		uploader:       cfg.Uploader,
		effects:        cfg.Effects,
		allowAnonymous: cfg.AllowAnonymous,
		views:          viewBuilder{users: cfg.Users, confirmations: cfg.Confirmations},
		now:            time.Now,
	}
}

// ListQuery carries raw listing parameters as received from the client.
type ListQuery struct {
	Type     string
	Status   string
	Severity string
	Priority string
	BBox     string
	Page     PageRequest
}

type OccurrencePage struct {
	Occurrences []models.OccurrenceView `json:"occurrences"`
	Pagination  Pagination              `json:"pagination"`
}

func (s *OccurrenceService) screen(in models.OccurrenceInput) error {
	return s.screener.Check(map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"address":     in.Address,
	})
}

// Create persists a new occurrence. reporter is nil for anonymous reports.
func (s *OccurrenceService) Create(ctx context.Context, in models.OccurrenceInput, reporter *models.User) (*models.OccurrenceView, error) {
	if reporter == nil && !s.allowAnonymous {
		return nil, apperr.Unauthorized("Authentication required to report an occurrence")
	}
	if err := s.screen(in); err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	occ := &models.Occurrence{
		ID:          primitive.NewObjectID(),
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Address:     strings.TrimSpace(in.Address),
		Location:    in.Location.Point(),
		Status:      models.StatusNew,
		Severity:    in.Severity,
		Priority:    in.Priority,
		Images:      []models.ImageMeta{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if occ.Severity == "" {
		occ.Severity = models.SeverityMedium
	}
	if occ.Priority == "" {
		occ.Priority = models.PriorityMedium
	}
	points := 0
	if reporter != nil {
		occ.ReportedBy = &reporter.ID
		points = models.PointsPerReport
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.occurrences.Create(ctx, occ); err != nil {
			return err
		}
		if reporter == nil {
			return nil
		}
		return s.users.AddStats(ctx, reporter.ID, repository.StatsDelta{Reports: 1, Points: points})
	})
	if err != nil {
		return nil, apperr.Internal("Failed to create occurrence", err)
	}

	s.effects.invalidate(ctx)
	snapshot := *occ
	s.effects.dispatch(ctx, func(ctx context.Context) {
		ev := models.ActivityEvent{OccurrenceID: snapshot.ID.Hex(), Type: models.ActivityReport, Points: points, CreatedAt: now}
		if reporter != nil {
			ev.UserID = reporter.ID.Hex()
		}
		s.effects.record(ctx, ev)
		s.effects.publish(ctx, DomainEvent{
			Type:         EventOccurrenceCreated,
			OccurrenceID: snapshot.ID.Hex(),
			UserID:       ev.UserID,
			At:           now,
			Data:         map[string]interface{}{"type": snapshot.Type, "severity": snapshot.Severity},
		})
		s.effects.notifyAdmins(ctx, NotificationNewOccurrence, map[string]interface{}{"occurrence": &snapshot})
	})

	view := &models.OccurrenceView{Occurrence: *occ}
	if reporter != nil {
		view.Reporter = reporter.Summary()
	}
	return view, nil
}

// List returns one page of occurrences, newest first, with reporters populated.
func (s *OccurrenceService) List(ctx context.Context, q ListQuery) (*OccurrencePage, error) {
	box, err := ParseBBox(q.BBox)
	if err != nil {
		return nil, err
	}
	filter := repository.OccurrenceFilter{
		Type:     q.Type,
		Status:   q.Status,
		Severity: q.Severity,
		Priority: q.Priority,
		BBox:     box,
	}
	return s.page(ctx, filter, q.Page)
}

// ListByReporter pages through the occurrences reported by one user.
func (s *OccurrenceService) ListByReporter(ctx context.Context, userIDHex string, page PageRequest) (*OccurrencePage, error) {
	id, err := parseID(userIDHex)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, repository.OccurrenceFilter{ReportedBy: &id}, page)
}

func (s *OccurrenceService) page(ctx context.Context, filter repository.OccurrenceFilter, page PageRequest) (*OccurrencePage, error) {
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	var (
		items []models.Occurrence
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.occurrences.List(gctx, filter, page.Skip(), int64(page.Limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.occurrences.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("Failed to list occurrences", err)
	}

	views, err := s.views.many(ctx, items)
	if err != nil {
		return nil, err
	}
	return &OccurrencePage{Occurrences: views, Pagination: BuildPagination(page, total)}, nil
}

func (s *OccurrenceService) Get(ctx context.Context, idHex string) (*models.OccurrenceView, error) {
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	occ, err := s.occurrences.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.views.one(ctx, occ)
}

func canModerate(actor *models.User, occ *models.Occurrence) bool {
	return actor != nil && (actor.HasRole(models.RoleAdmin, models.RoleModerator) || occ.ReportedByUser(actor.ID))
}

func canRemove(actor *models.User, occ *models.Occurrence) bool {
	return actor != nil && (actor.IsAdmin() || occ.ReportedByUser(actor.ID))
}

// Update replaces the editable fields of an occurrence.
func (s *OccurrenceService) Update(ctx context.Context, idHex string, in models.OccurrenceInput, actor *models.User) (*models.OccurrenceView, error) {
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	occ, err := s.occurrences.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModerate(actor, occ) {
		return nil, apperr.Forbidden("Not authorized to update this occurrence")
	}
	if err := s.screen(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	prev := occ.Status
	occ.Type = in.Type
	occ.Title = strings.TrimSpace(in.Title)
	occ.Description = strings.TrimSpace(in.Description)
	occ.Address = strings.TrimSpace(in.Address)
	occ.Location = in.Location.Point()
	if in.Severity != "" {
		occ.Severity = in.Severity
	}
	if in.Priority != "" {
		occ.Priority = in.Priority
	}
	if in.Status != "" {
		occ.Status = in.Status
	}
	resolvedNow := occ.Status == models.StatusResolved && prev != models.StatusResolved
	switch {
	case resolvedNow:
		occ.ResolvedAt = &now
	case occ.Status != models.StatusResolved:
		occ.ResolvedAt = nil
	}
	occ.UpdatedAt = now

	if err := s.occurrences.Update(ctx, occ); err != nil {
		return nil, err
	}

	s.effects.invalidate(ctx)
	snapshot := *occ
	s.effects.dispatch(ctx, func(ctx context.Context) {
		evType := EventOccurrenceUpdated
		if resolvedNow {
			evType = EventOccurrenceResolved
		}
		s.effects.publish(ctx, DomainEvent{
			Type:         evType,
			OccurrenceID: snapshot.ID.Hex(),
			UserID:       actor.ID.Hex(),
			At:           now,
			Data:         map[string]interface{}{"from": prev, "to": snapshot.Status},
		})
		if prev != snapshot.Status {
			s.effects.record(ctx, models.ActivityEvent{
				UserID:       actor.ID.Hex(),
				OccurrenceID: snapshot.ID.Hex(),
				Type:         models.ActivityStatusChange,
				CreatedAt:    now,
			})
		}
		if resolvedNow && snapshot.ReportedBy != nil {
			s.effects.notify(ctx, *snapshot.ReportedBy, NotificationOccurrenceResolved, map[string]interface{}{"occurrence": &snapshot})
		}
	})

	return s.views.one(ctx, occ)
}

// Delete removes an occurrence together with its confirmations.
func (s *OccurrenceService) Delete(ctx context.Context, idHex string, actor *models.User) error {
	id, err := parseID(idHex)
	if err != nil {
		return err
	}
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	occ, err := s.occurrences.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canRemove(actor, occ) {
		return apperr.Forbidden("Not authorized to delete this occurrence")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.confirmations.DeleteByOccurrence(ctx, id); err != nil {
			return err
		}
		return s.occurrences.Delete(ctx, id)
	})
	if err != nil {
		return apperr.Internal("Failed to delete occurrence", err)
	}

	s.effects.invalidate(ctx)
	now := s.now().UTC()
	s.effects.dispatch(ctx, func(ctx context.Context) {
		s.effects.record(ctx, models.ActivityEvent{
			UserID:       actor.ID.Hex(),
			OccurrenceID: id.Hex(),
			Type:         models.ActivityDeletion,
			CreatedAt:    now,
		})
		s.effects.publish(ctx, DomainEvent{Type: EventOccurrenceDeleted, OccurrenceID: id.Hex(), UserID: actor.ID.Hex(), At: now})
	})
	return nil
}

// AttachImage normalises an uploaded photo, stores it and appends its metadata.
func (s *OccurrenceService) AttachImage(ctx context.Context, idHex string, actor *models.User, file io.Reader, filename string) (*models.ImageMeta, error) {
	if s.uploader == nil {
		return nil, apperr.Unavailable("Image uploads are not configured")
	}
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	occ, err := s.occurrences.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRemove(actor, occ) {
		return nil, apperr.Forbidden("Not authorized to add images to this occurrence")
	}

	img, err := ProcessImage(file)
	if err != nil {
		return nil, err
	}
	url, publicID, err := s.uploader.Upload(ctx, img.Data, imageFolder+"/"+id.Hex())
	if err != nil {
		return nil, apperr.Unavailable("Image storage is unavailable")
	}

	meta := models.ImageMeta{
		URL:          url,
		PublicID:     publicID,
		OriginalName: filename,
		Width:        img.Width,
		Height:       img.Height,
		TakenAt:      img.TakenAt,
		Location:     img.Location,
		UploadedAt:   s.now().UTC(),
	}

	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()
	if err := s.occurrences.AddImage(ctx, id, meta); err != nil {
		return nil, apperr.Internal("Failed to save image", err)
	}
	return &meta, nil
}
