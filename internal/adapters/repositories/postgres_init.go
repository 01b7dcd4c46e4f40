package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the Postgres tables used by the geocode cache, the
// preference weights store and the selection log.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createWeightsQuery := `
	CREATE TABLE IF NOT EXISTS preference_weights (
		user_id TEXT PRIMARY KEY,
		weights JSONB NOT NULL,
		cuisine_affinity JSONB NOT NULL DEFAULT '{}'::jsonb,
		updates INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createSelectionEventsQuery := `
	CREATE TABLE IF NOT EXISTS selection_events (
		event_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		trip_id TEXT NOT NULL DEFAULT '',
		payload JSONB NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_selection_events_user_recorded
	ON selection_events(user_id, recorded_at);
	`

	statements := []string{
		createGeocodeCacheQuery,
		createWeightsQuery,
		createSelectionEventsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
