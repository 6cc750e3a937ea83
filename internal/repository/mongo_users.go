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

const usersCollection = "users"

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Duplicate("email already in use")
		}
		return err
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindSummaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error) {
	out := make(map[primitive.ObjectID]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1, "avatar": "$profile.avatar"})
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var s models.UserSummary
		if err := cursor.Decode(&s); err != nil {
			return nil, err
		}
		out[s.ID] = &s
	}
	return out, cursor.Err()
}

func (r *MongoUserRepository) FindByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{"role": role})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Profile != nil {
		set["profile.avatar"] = patch.Profile.Avatar
		set["profile.bio"] = patch.Profile.Bio
		set["profile.location"] = patch.Profile.Location
	}
	if patch.Preferences != nil && patch.Preferences.Notifications != nil {
		if patch.Preferences.Notifications.Email != nil {
			set["preferences.notifications.email"] = *patch.Preferences.Notifications.Email
		}
		if patch.Preferences.Notifications.Push != nil {
			set["preferences.notifications.push"] = *patch.Preferences.Notifications.Push
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

func (r *MongoUserRepository) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login": at}})
	return err
}

// AddStats uses an update pipeline so the level is derived from the new point total atomically.
func (r *MongoUserRepository) AddStats(ctx context.Context, id primitive.ObjectID, delta StatsDelta) error {
	add := func(field string, n int) bson.D {
		return bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}}, n}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stats.reports_count", Value: add("stats.reports_count", delta.Reports)},
			{Key: "stats.confirmations_count", Value: add("stats.confirmations_count", delta.Confirmations)},
			{Key: "stats.points", Value: add("stats.points", delta.Points)},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "stats.level", Value: bson.D{{Key: "$toInt", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$floor", Value: bson.D{{Key: "$divide", Value: bson.A{"$stats.points", models.PointsPerLevel}}}}},
				1,
			}}}}}},
		}}},
	}
	res, err := r.col.UpdateByID(ctx, id, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

func (r *MongoUserRepository) TopByPoints(ctx context.Context, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "stats.points", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"password_hash": 0})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
