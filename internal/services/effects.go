package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AnshRaj112/inframonitor-backend/internal/metrics"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

// NotificationSender delivers user-facing notifications.
type NotificationSender interface {
	Notify(ctx context.Context, userID primitive.ObjectID, typ NotificationType, data map[string]interface{}) NotifyResult
	NotifyAdmins(ctx context.Context, typ NotificationType, data map[string]interface{}) int
}

// EventPublisher emits domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev DomainEvent) error
}

// ActivityRecorder appends rows to the activity ledger.
type ActivityRecorder interface {
	Record(ctx context.Context, ev models.ActivityEvent) error
}

// StatsInvalidator drops cached aggregates after a write.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// Effects are the post-commit side effects of a write. Every member is optional and
// failures are logged, never returned.
type Effects struct {
	Notifier NotificationSender
	Events   EventPublisher
	Activity ActivityRecorder
	Cache    StatsInvalidator
	Log      *zap.SugaredLogger
	// Async runs side effects on a detached goroutine so slow SMTP or Kafka calls do not hold the request.
	Async bool
}

const effectTimeout = 15 * time.Second

// dispatch runs fn after the request's write has committed.
func (e *Effects) dispatch(ctx context.Context, fn func(ctx context.Context)) {
	if e == nil {
		return
	}
	if !e.Async {
		fn(ctx)
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(detached, effectTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (e *Effects) logger() *zap.SugaredLogger {
	if e == nil || e.Log == nil {
		return zap.NewNop().Sugar()
	}
	return e.Log
}

func (e *Effects) notify(ctx context.Context, userID primitive.ObjectID, typ NotificationType, data map[string]interface{}) {
	if e == nil || e.Notifier == nil {
		return
	}
	e.Notifier.Notify(ctx, userID, typ, data)
}

func (e *Effects) notifyAdmins(ctx context.Context, typ NotificationType, data map[string]interface{}) {
	if e == nil || e.Notifier == nil {
		return
	}
	e.Notifier.NotifyAdmins(ctx, typ, data)
}

func (e *Effects) publish(ctx context.Context, ev DomainEvent) {
	metrics.DomainEvents.WithLabelValues(string(ev.Type)).Inc()
	if e == nil || e.Events == nil {
		return
	}
	if err := e.Events.Publish(ctx, ev); err != nil {
		e.logger().Warnw("failed to publish event", "type", ev.Type, "occurrence", ev.OccurrenceID, "error", err)
	}
}

func (e *Effects) record(ctx context.Context, ev models.ActivityEvent) {
	if e == nil || e.Activity == nil {
		return
	}
	if err := e.Activity.Record(ctx, ev); err != nil {
		e.logger().Warnw("failed to record activity", "type", ev.Type, "occurrence", ev.OccurrenceID, "error", err)
	}
}

func (e *Effects) invalidate(ctx context.Context) {
	if e == nil || e.Cache == nil {
		return
	}
	e.Cache.InvalidateStats(ctx)
}
