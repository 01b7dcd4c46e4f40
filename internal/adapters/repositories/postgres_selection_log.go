package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/platform/obs"
	"roadtrip-meal-service/internal/ports"
)

// Append-only selection log. Rows are never updated; replaying the same
// event id is a no-op.
type PostgresSelectionLog struct{ DB *sql.DB }

var _ ports.SelectionLog = (*PostgresSelectionLog)(nil)

func NewPostgresSelectionLog(db *sql.DB) *PostgresSelectionLog {
	return &PostgresSelectionLog{DB: db}
}

func (l *PostgresSelectionLog) AppendSelection(ctx context.Context, event domain.UserSelectionEvent) (err error) {
	defer obs.Time(ctx, "selection.log.Append")(&err)

	if l.DB == nil {
		return errors.New("postgres selection log: DB is nil")
	}
	if event.ID == "" {
		return errors.New("append selection: event id is empty")
	}

	payload, err := json.Marshal(toSelectionEventRecord(event))
	if err != nil {
		return fmt.Errorf("append selection id=%s: encode: %w", event.ID, err)
	}

	query := `
	INSERT INTO selection_events (event_id, user_id, trip_id, payload, recorded_at)
	VALUES ($1, $2, $3, $4::jsonb, $5)
	ON CONFLICT (event_id) DO NOTHING;
	`
	if _, err := l.DB.ExecContext(ctx, query, event.ID, event.UserID, event.Trip.TripID, string(payload), event.RecordedAt.UTC()); err != nil {
		return fmt.Errorf("append selection id=%s: %w", event.ID, err)
	}
	return nil
}
