package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error)
	FindByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	// AddStats increments counters and points and recomputes the level in one write.
	AddStats(ctx context.Context, id primitive.ObjectID, delta StatsDelta) error
	TopByPoints(ctx context.Context, limit int64) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// OccurrenceRepository defines the interface for occurrence-related database operations
type OccurrenceRepository interface {
	Create(ctx context.Context, o *models.Occurrence) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Occurrence, error)
	List(ctx context.Context, filter OccurrenceFilter, skip, limit int64) ([]models.Occurrence, error)
	Count(ctx context.Context, filter OccurrenceFilter) (int64, error)
	Update(ctx context.Context, o *models.Occurrence) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementConfirmations(ctx context.Context, id primitive.ObjectID, delta int) error
	AddImage(ctx context.Context, id primitive.ObjectID, img models.ImageMeta) error
	CountBy(ctx context.Context, field string) (map[string]int64, error)
	Hotspots(ctx context.Context, limit int64) ([]models.Hotspot, error)
}

// ConfirmationRepository defines the interface for confirmation-related database operations
type ConfirmationRepository interface {
	// Create returns an apperr duplicate error when the (occurrence, user) pair already exists.
	Create(ctx context.Context, c *models.Confirmation) error
	ExistsForUser(ctx context.Context, occurrenceID, userID primitive.ObjectID) (bool, error)
	ExistsForAnonymousKey(ctx context.Context, occurrenceID primitive.ObjectID, key string) (bool, error)
	ListByOccurrence(ctx context.Context, occurrenceID primitive.ObjectID) ([]models.Confirmation, error)
	DeleteByOccurrence(ctx context.Context, occurrenceID primitive.ObjectID) error
	Count(ctx context.Context, since time.Time) (int64, error)
}

// ActivityRepository is the relational ledger of point-bearing actions.
type ActivityRepository interface {
	Record(ctx context.Context, ev models.ActivityEvent) error
	Daily(ctx context.Context, since time.Time) ([]models.DailyActivity, error)
	TopContributors(ctx context.Context, since time.Time, limit int) ([]models.Contributor, error)
}

// TxRunner runs fn so that every repository call made with the ctx it receives commits or aborts together.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type StatsDelta struct {
	Reports       int
	Confirmations int
	Points        int
}
