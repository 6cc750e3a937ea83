package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

const occurrencesCollection = "occurrences"

type MongoOccurrenceRepository struct {
	col *mongo.Collection
}

func NewMongoOccurrenceRepository(db *mongo.Database) *MongoOccurrenceRepository {
	return &MongoOccurrenceRepository{col: db.Collection(occurrencesCollection)}
}

func occurrenceNotFound() error {
	return apperr.NotFound("Occurrence not found")
}

func (r *MongoOccurrenceRepository) Create(ctx context.Context, o *models.Occurrence) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, o)
	return err
}

func (r *MongoOccurrenceRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Occurrence, error) {
	var o models.Occurrence
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, occurrenceNotFound()
		}
		return nil, err
	}
	return &o, nil
}

// List returns occurrences newest first.
func (r *MongoOccurrenceRepository) List(ctx context.Context, filter OccurrenceFilter, skip, limit int64) ([]models.Occurrence, error) {
	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	findOptions.SetLimit(limit)
	findOptions.SetSkip(skip)

	cursor, err := r.col.Find(ctx, filter.BSON(), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	occurrences := make([]models.Occurrence, 0, limit)
	if err := cursor.All(ctx, &occurrences); err != nil {
		return nil, err
	}
	return occurrences, nil
}

func (r *MongoOccurrenceRepository) Count(ctx context.Context, filter OccurrenceFilter) (int64, error) {
	return r.col.CountDocuments(ctx, filter.BSON())
}

// Update replaces the mutable fields of o. Confirmation count and images are left untouched.
func (r *MongoOccurrenceRepository) Update(ctx context.Context, o *models.Occurrence) error {
	o.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"type":        o.Type,
		"title":       o.Title,
		"description": o.Description,
		"address":     o.Address,
		"location":    o.Location,
		"status":      o.Status,
		"severity":    o.Severity,
		"priority":    o.Priority,
		"updated_at":  o.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if o.ResolvedAt != nil {
		set["resolved_at"] = o.ResolvedAt
	} else {
		update["$unset"] = bson.M{"resolved_at": ""}
	}

	res, err := r.col.UpdateByID(ctx, o.ID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return occurrenceNotFound()
	}
	return nil
}

func (r *MongoOccurrenceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return occurrenceNotFound()
	}
	return nil
}

func (r *MongoOccurrenceRepository) IncrementConfirmations(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"confirmation_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return occurrenceNotFound()
	}
	return nil
}

func (r *MongoOccurrenceRepository) AddImage(ctx context.Context, id primitive.ObjectID, img models.ImageMeta) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"images": img},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return occurrenceNotFound()
	}
	return nil
}

// CountBy groups occurrences by a top-level field such as "type" or "status".
func (r *MongoOccurrenceRepository) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Count
	}
	return out, cursor.Err()
}

// Hotspots groups occurrences by coordinates rounded to two decimals, largest clusters first.
func (r *MongoOccurrenceRepository) Hotspots(ctx context.Context, limit int64) ([]models.Hotspot, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "lat", Value: bson.D{{Key: "$round", Value: bson.A{"$location.lat", 2}}}},
				{Key: "lng", Value: bson.D{{Key: "$round", Value: bson.A{"$location.lng", 2}}}},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "lat", Value: "$_id.lat"},
			{Key: "lng", Value: "$_id.lng"},
			{Key: "count", Value: 1},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	hotspots := []models.Hotspot{}
	if err := cursor.All(ctx, &hotspots); err != nil {
		return nil, err
	}
	return hotspots, nil
}
