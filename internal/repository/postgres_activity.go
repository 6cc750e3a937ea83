package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

type PostgresActivityRepository struct {
	db *sql.DB
}

func NewPostgresActivityRepository(db *sql.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Record(ctx context.Context, ev models.ActivityEvent) error {
	var userID interface{}
	if ev.UserID != "" {
		userID = ev.UserID
	}
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_events (user_id, occurrence_id, event_type, points, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, ev.OccurrenceID, string(ev.Type), ev.Points, createdAt)
	return err
}

// Daily returns per-day counts of each event type since the given time, oldest first.
func (r *PostgresActivityRepository) Daily(ctx context.Context, since time.Time) ([]models.DailyActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char((created_at)::date, 'YYYY-MM-DD') AS d,
			COUNT(*) FILTER (WHERE event_type = 'report'),
			COUNT(*) FILTER (WHERE event_type = 'confirmation'),
			COUNT(*) FILTER (WHERE event_type = 'status_change')
		FROM activity_events
		WHERE created_at >= $1
		GROUP BY (created_at)::date
		ORDER BY (created_at)::date
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]models.DailyActivity, 0)
	for rows.Next() {
		var d models.DailyActivity
		if err := rows.Scan(&d.Day, &d.Reports, &d.Confirmations, &d.StatusChanges); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *PostgresActivityRepository) TopContributors(ctx context.Context, since time.Time, limit int) ([]models.Contributor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*), COALESCE(SUM(points), 0)
		FROM activity_events
		WHERE created_at >= $1 AND user_id IS NOT NULL
		GROUP BY user_id
		ORDER BY SUM(points) DESC, COUNT(*) DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Contributor, 0)
	for rows.Next() {
		var c models.Contributor
		if err := rows.Scan(&c.UserID, &c.Events, &c.Points); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
