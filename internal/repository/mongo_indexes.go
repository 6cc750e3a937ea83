package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique keys that enforce one confirmation per (occurrence, confirmer).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("uniq_email").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "stats.points", Value: -1}},
				Options: options.Index().SetName("idx_points"),
			},
			{
				Keys:    bson.D{{Key: "role", Value: 1}},
				Options: options.Index().SetName("idx_role"),
			},
		},
		occurrencesCollection: {
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_created_at"),
			},
			{
				Keys:    bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_type_status_created"),
			},
			{
				Keys:    bson.D{{Key: "reported_by", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_reporter_created"),
			},
			{
				Keys:    bson.D{{Key: "location.lat", Value: 1}, {Key: "location.lng", Value: 1}},
				Options: options.Index().SetName("idx_location"),
			},
		},
		confirmationsCollection: {
			{
				Keys: bson.D{{Key: "occurrence_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetName("uniq_occurrence_user").SetUnique(true).
					SetPartialFilterExpression(bson.M{"user_id": bson.M{"$exists": true}}),
			},
			{
				Keys: bson.D{{Key: "occurrence_id", Value: 1}, {Key: "anonymous_key", Value: 1}},
				Options: options.Index().SetName("uniq_occurrence_anonymous_key").SetUnique(true).
					SetPartialFilterExpression(bson.M{"anonymous_key": bson.M{"$exists": true}}),
			},
			{
				Keys:    bson.D{{Key: "occurrence_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_occurrence_created"),
			},
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_created_at"),
			},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
