package services

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository/repotest"
)

type sentNotification struct {
	userID primitive.ObjectID
	typ    NotificationType
	admins bool
}

type recordingEffects struct {
	mu            sync.Mutex
	notifications []sentNotification
	events        []DomainEvent
	activity      []models.ActivityEvent
	invalidations int
}

func (r *recordingEffects) Notify(_ context.Context, userID primitive.ObjectID, typ NotificationType, _ map[string]interface{}) NotifyResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, sentNotification{userID: userID, typ: typ})
	return NotifyResult{WsSent: true}
}

func (r *recordingEffects) NotifyAdmins(_ context.Context, typ NotificationType, _ map[string]interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, sentNotification{typ: typ, admins: true})
	return 1
}

func (r *recordingEffects) Publish(_ context.Context, ev DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEffects) Record(_ context.Context, ev models.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = append(r.activity, ev)
	return nil
}

func (r *recordingEffects) InvalidateStats(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidations++
}

func (r *recordingEffects) effects() *Effects {
	return &Effects{Notifier: r, Events: r, Activity: r, Cache: r}
}

func (r *recordingEffects) notified(typ NotificationType) []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentNotification
	for _, n := range r.notifications {
		if n.typ == typ {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingEffects) eventTypes() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// ---- fixtures ----

type fixture struct {
	users         *repotest.Users
	occurrences   *repotest.Occurrences
	confirmations *repotest.Confirmations
	fx            *recordingEffects
}

func newFixture() *fixture {
	return &fixture{
		users:         repotest.NewUsers(),
		occurrences:   repotest.NewOccurrences(),
		confirmations: &repotest.Confirmations{},
		fx:            &recordingEffects{},
	}
}

func (f *fixture) occurrenceService(allowAnonymous bool) *OccurrenceService {
	return NewOccurrenceService(OccurrenceServiceConfig{
		Occurrences:    f.occurrences,
		Confirmations:  f.confirmations,
		Users:          f.users,
		Tx:             repotest.Tx{},
		Screener:       NewContentScreener(nil),
		Effects:        f.fx.effects(),
		AllowAnonymous: allowAnonymous,
	})
}

func (f *fixture) confirmationService(policy string) *ConfirmationService {
	return NewConfirmationService(ConfirmationServiceConfig{
		Occurrences:     f.occurrences,
		Confirmations:   f.confirmations,
		Users:           f.users,
		Tx:              repotest.Tx{},
		Screener:        NewContentScreener(nil),
		Effects:         f.fx.effects(),
		AnonymousPolicy: policy,
	})
}

func ptr[T any](v T) *T { return &v }

func validInput(typ models.OccurrenceType, lat, lng float64) models.OccurrenceInput {
	return models.OccurrenceInput{
		Type:        typ,
		Title:       "Broken street lamp",
		Description: "The lamp on the corner has been dark for days",
		Address:     "Rua das Flores 120",
		Location:    &models.LocationInput{Lat: ptr(lat), Lng: ptr(lng)},
	}
}
