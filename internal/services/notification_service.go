package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AnshRaj112/inframonitor-backend/internal/metrics"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

type NotificationType string

const (
	NotificationWelcome             NotificationType = "welcome"
	NotificationOccurrenceConfirmed NotificationType = "occurrence_confirmed"
	NotificationOccurrenceResolved  NotificationType = "occurrence_resolved"
	NotificationNewConfirmation     NotificationType = "new_confirmation"
	NotificationNewOccurrence       NotificationType = "new_occurrence"
)

type NotifyResult struct {
	WsSent    bool `json:"wsSent"`
	EmailSent bool `json:"emailSent"`
}

type BroadcastResult struct {
	UserID string `json:"userId"`
	NotifyResult
}

// NotificationService delivers notifications over websocket and email according to user preferences.
type NotificationService struct {
	users  repository.UserRepository
	hub    *NotificationHub
	mailer Mailer
	log    *zap.SugaredLogger
}

// NewNotificationService wires delivery channels. hub and mailer may be nil.
func NewNotificationService(users repository.UserRepository, hub *NotificationHub, mailer Mailer, log *zap.SugaredLogger) *NotificationService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NotificationService{users: users, hub: hub, mailer: mailer, log: log}
}

func (s *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, typ NotificationType, data map[string]interface{}) NotifyResult {
	var res NotifyResult
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Warnw("notification target not found", "user", userID.Hex(), "type", typ, "error", err)
		return res
	}

	prefs := user.Preferences.Notifications
	if prefs.Push && s.hub != nil {
		res.WsSent = s.hub.Deliver(ctx, Notification{Type: typ, UserID: userID.Hex(), Data: data})
	}
	if prefs.Email && s.mailer != nil {
		res.EmailSent = s.sendEmail(ctx, user, typ, data)
	}
	if res.WsSent {
		metrics.NotificationsSent.WithLabelValues("ws", string(typ)).Inc()
	}
	if res.EmailSent {
		metrics.NotificationsSent.WithLabelValues("email", string(typ)).Inc()
	}
	return res
}

func (s *NotificationService) BroadcastToUsers(ctx context.Context, ids []primitive.ObjectID, typ NotificationType, data map[string]interface{}) []BroadcastResult {
	results := make([]BroadcastResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, BroadcastResult{UserID: id.Hex(), NotifyResult: s.Notify(ctx, id, typ, data)})
	}
	return results
}

// NotifyAdmins broadcasts to every admin and returns how many were targeted.
func (s *NotificationService) NotifyAdmins(ctx context.Context, typ NotificationType, data map[string]interface{}) int {
	admins, err := s.users.FindByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.log.Errorw("failed to load admins for notification", "type", typ, "error", err)
		return 0
	}
	ids := make([]primitive.ObjectID, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID)
	}
	s.BroadcastToUsers(ctx, ids, typ, data)
	return len(ids)
}

func (s *NotificationService) Stats() HubStats {
	if s.hub == nil {
		return HubStats{}
	}
	return s.hub.Stats()
}

func (s *NotificationService) sendEmail(ctx context.Context, user *models.User, typ NotificationType, data map[string]interface{}) bool {
	var (
		subject string
		html    string
		err     error
	)
	switch typ {
	case NotificationWelcome:
		subject = "Welcome to InfraMonitor!"
		html, err = renderEmail("welcome", struct{ Name string }{user.Name})
	case NotificationOccurrenceConfirmed, NotificationOccurrenceResolved, NotificationNewConfirmation:
		occ, ok := data["occurrence"].(*models.Occurrence)
		if !ok || occ == nil {
			s.log.Warnw("notification without occurrence payload", "type", typ)
			return false
		}
		subject = occurrenceSubject(typ, occ.Title)
		html, err = renderEmail("occurrence", occurrenceEmail{
			Subject:       subject,
			Title:         occ.Title,
			Address:       occ.Address,
			Status:        string(occ.Status),
			Confirmations: occ.ConfirmationCount,
		})
	default:
		return false
	}
	if err != nil {
		s.log.Errorw("failed to render email", "type", typ, "error", err)
		return false
	}
	return s.mailer.Send(ctx, user.Email, subject, html) == nil
}

func occurrenceSubject(typ NotificationType, title string) string {
	switch typ {
	case NotificationOccurrenceConfirmed:
		return "Occurrence confirmed: " + title
	case NotificationOccurrenceResolved:
		return "Problem resolved: " + title
	case NotificationNewConfirmation:
		return "New confirmation on your occurrence: " + title
	}
	return "Occurrence update: " + title
}
