package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/AnshRaj112/inframonitor-backend/internal/logger"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to the activity ledger database and creates its tables.
func ConnectPostgres(postgresURI string) error {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	PostgresDB = db
	logger.L().Info("✅ Connected to PostgreSQL")

	return InitPostgresTables(context.Background())
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS activity_events (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			user_id VARCHAR(24),
			occurrence_id VARCHAR(24) NOT NULL,
			event_type VARCHAR(32) NOT NULL,
			points INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activity_events_created_at ON activity_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_events_user_id ON activity_events(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_events_type ON activity_events(event_type)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	logger.L().Info("✅ PostgreSQL tables initialized")
	return nil
}

// PingPostgres is used by the health endpoint.
func PingPostgres(ctx context.Context) error {
	if PostgresDB == nil {
		return sql.ErrConnDone
	}
	return PostgresDB.PingContext(ctx)
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
