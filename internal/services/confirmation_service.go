package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/config"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

type ConfirmationServiceConfig struct {
	Occurrences   repository.OccurrenceRepository
	Confirmations repository.ConfirmationRepository
	Users         repository.UserRepository
	Tx            repository.TxRunner
	Screener      *ContentScreener
	Effects       *Effects
	// AnonymousPolicy is one of the config.AnonConfirm* values.
	AnonymousPolicy string
}

// ConfirmationService records citizens vouching for an existing occurrence.
type ConfirmationService struct {
	occurrences   repository.OccurrenceRepository
	confirmations repository.ConfirmationRepository
	users         repository.UserRepository
	tx            repository.TxRunner
	screener      *ContentScreener
	effects       *Effects
	policy        string
	views         viewBuilder
	now           func() time.Time
}

func NewConfirmationService(cfg ConfirmationServiceConfig) *ConfirmationService {
	policy := cfg.AnonymousPolicy
	if policy == "" {
		policy = config.AnonConfirmCount
	}
	return &ConfirmationService{
		occurrences:   cfg.Occurrences,
		confirmations: cfg.Confirmations,
		users:         cfg.Users,
		tx:            cfg.Tx,
		screener:      cfg.Screener,
		effects:       cfg.Effects,
		policy:        policy,
		views:         viewBuilder{users: cfg.Users, confirmations: cfg.Confirmations},
		now:           time.Now,
	}
}

// Confirm adds a confirmation from actor, or an anonymous one keyed by clientKey when actor is nil.
func (s *ConfirmationService) Confirm(ctx context.Context, idHex string, actor *models.User, clientKey string, in models.ConfirmationInput) (*models.OccurrenceView, error) {
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	if _, err := s.occurrences.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.screener.Check(map[string]string{"comment": in.Comment}); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	conf := &models.Confirmation{
		ID:                 primitive.NewObjectID(),
		OccurrenceID:       id,
		Comment:            strings.TrimSpace(in.Comment),
		SeverityAssessment: in.SeverityAssessment,
		CreatedAt:          now,
	}
	if conf.SeverityAssessment == "" {
		conf.SeverityAssessment = models.SeverityMedium
	}
	if in.Location != nil {
		p := in.Location.Point()
		conf.Location = &p
	}

	counted := true
	if actor != nil {
		exists, err := s.confirmations.ExistsForUser(ctx, id, actor.ID)
		if err != nil {
			return nil, apperr.Internal("Failed to check confirmation", err)
		}
		if exists {
			return nil, repository.ErrAlreadyConfirmed()
		}
		conf.UserID = &actor.ID
	} else {
		switch s.policy {
		case config.AnonConfirmReject:
			return nil, apperr.Unauthorized("Authentication required to confirm an occurrence")
		case config.AnonConfirmPerClient:
			if clientKey == "" {
				return nil, apperr.Validation("Missing client identifier",
					apperr.FieldError{Field: "X-Client-ID", Message: "a client identifier is required for anonymous confirmations"})
			}
			exists, err := s.confirmations.ExistsForAnonymousKey(ctx, id, clientKey)
			if err != nil {
				return nil, apperr.Internal("Failed to check confirmation", err)
			}
			if exists {
				return nil, repository.ErrAlreadyConfirmed()
			}
			conf.AnonymousKey = clientKey
		case config.AnonConfirmUncounted:
			counted = false
		}
	}

	points := 0
	if actor != nil {
		points = models.PointsPerConfirmation
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.confirmations.Create(ctx, conf); err != nil {
			return err
		}
		if counted {
			if err := s.occurrences.IncrementConfirmations(ctx, id, 1); err != nil {
				return err
			}
		}
		if actor == nil {
			return nil
		}
		return s.users.AddStats(ctx, actor.ID, repository.StatsDelta{Confirmations: 1, Points: points})
	})
	if err != nil {
		if apperr.Status(err) < 500 {
			return nil, err
		}
		return nil, apperr.Internal("Failed to confirm occurrence", err)
	}

	fresh, err := s.occurrences.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.effects.invalidate(ctx)

	snapshot := *fresh
	confirmer := ""
	if actor != nil {
		confirmer = actor.ID.Hex()
	}
	s.effects.dispatch(ctx, func(ctx context.Context) {
		data := map[string]interface{}{"occurrence": &snapshot, "confirmationId": conf.ID.Hex()}
		if snapshot.ReportedBy != nil && (actor == nil || !snapshot.ReportedByUser(actor.ID)) {
			s.effects.notify(ctx, *snapshot.ReportedBy, NotificationNewConfirmation, data)
		}
		if actor != nil {
			s.effects.notify(ctx, actor.ID, NotificationOccurrenceConfirmed, data)
		}
		s.effects.record(ctx, models.ActivityEvent{
			UserID:       confirmer,
			OccurrenceID: snapshot.ID.Hex(),
			Type:         models.ActivityConfirmation,
			Points:       points,
			CreatedAt:    now,
		})
		s.effects.publish(ctx, DomainEvent{
			Type:         EventOccurrenceConfirmed,
			OccurrenceID: snapshot.ID.Hex(),
			UserID:       confirmer,
			At:           now,
			Data: map[string]interface{}{
				"anonymous":         actor == nil,
				"counted":           counted,
				"confirmationCount": snapshot.ConfirmationCount,
			},
		})
	})

	return s.views.one(ctx, fresh)
}

// ListForOccurrence returns confirmations newest first with confirmers populated.
func (s *ConfirmationService) ListForOccurrence(ctx context.Context, idHex string) ([]models.ConfirmationView, error) {
	id, err := parseID(idHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withStoreTimeout(ctx)
	defer cancel()

	if _, err := s.occurrences.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.views.confirmationViews(ctx, id)
}
