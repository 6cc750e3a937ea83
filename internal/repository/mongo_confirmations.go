package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

const confirmationsCollection = "confirmations"

// ErrAlreadyConfirmed is returned when a confirmer has already vouched for an occurrence.
func ErrAlreadyConfirmed() error {
	return apperr.Duplicate("You have already confirmed this occurrence")
}

type MongoConfirmationRepository struct {
	col *mongo.Collection
}

func NewMongoConfirmationRepository(db *mongo.Database) *MongoConfirmationRepository {
	return &MongoConfirmationRepository{col: db.Collection(confirmationsCollection)}
}

func (r *MongoConfirmationRepository) Create(ctx context.Context, c *models.Confirmation) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyConfirmed()
		}
		return err
	}
	return nil
}

func (r *MongoConfirmationRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *MongoConfirmationRepository) ExistsForUser(ctx context.Context, occurrenceID, userID primitive.ObjectID) (bool, error) {
	return r.exists(ctx, bson.M{"occurrence_id": occurrenceID, "user_id": userID})
}

func (r *MongoConfirmationRepository) ExistsForAnonymousKey(ctx context.Context, occurrenceID primitive.ObjectID, key string) (bool, error) {
	return r.exists(ctx, bson.M{"occurrence_id": occurrenceID, "anonymous_key": key})
}

// ListByOccurrence returns confirmations newest first.
func (r *MongoConfirmationRepository) ListByOccurrence(ctx context.Context, occurrenceID primitive.ObjectID) ([]models.Confirmation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"occurrence_id": occurrenceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	confirmations := []models.Confirmation{}
	if err := cursor.All(ctx, &confirmations); err != nil {
		return nil, err
	}
	return confirmations, nil
}

func (r *MongoConfirmationRepository) DeleteByOccurrence(ctx context.Context, occurrenceID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"occurrence_id": occurrenceID})
	return err
}

// Count counts confirmations created at or after since; a zero since counts all.
func (r *MongoConfirmationRepository) Count(ctx context.Context, since time.Time) (int64, error) {
	filter := bson.M{}
	if !since.IsZero() {
		filter["created_at"] = bson.M{"$gte": since}
	}
	return r.col.CountDocuments(ctx, filter)
}
