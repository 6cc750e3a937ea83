package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTxRunner wraps multi-document writes in a session transaction.
// With transactions disabled (standalone servers) fn runs directly.
type MongoTxRunner struct {
	client  *mongo.Client
	enabled bool
}

func NewMongoTxRunner(client *mongo.Client, enabled bool) *MongoTxRunner {
	return &MongoTxRunner{client: client, enabled: enabled}
}

func (t *MongoTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled || t.client == nil {
		return fn(ctx)
	}
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
