package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AnshRaj112/inframonitor-backend/internal/logger"
)

const defaultDatabase = "inframonitor"

var Client *mongo.Client
var DB *mongo.Database

// Connect opens the MongoDB client and selects the database named in the URI path.
func Connect(mongoURI string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(DatabaseName(mongoURI))

	logger.L().Infow("✅ Connected to MongoDB", "database", DB.Name())
	return nil
}

// DatabaseName extracts the database from mongodb://host/name?opts, falling back to the default.
func DatabaseName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	i := strings.Index(rest, "/")
	if i < 0 {
		return defaultDatabase
	}
	name := strings.SplitN(rest[i+1:], "?", 2)[0]
	if name == "" {
		return defaultDatabase
	}
	return name
}

// MaskURI hides the password part of a connection string for logging.
func MaskURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	scheme := strings.Index(uri, "://")
	if at < 0 || scheme < 0 {
		return uri
	}
	creds := uri[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return uri[:scheme+3] + creds[:colon] + ":***" + uri[at:]
	}
	return uri
}

// PingMongo is used by the health endpoint.
func PingMongo(ctx context.Context) error {
	if Client == nil {
		return mongo.ErrClientDisconnected
	}
	return Client.Ping(ctx, readpref.Primary())
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}
