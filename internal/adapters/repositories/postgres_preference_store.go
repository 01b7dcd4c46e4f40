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
	"time"
)

// Postgres-backed implementation of the WeightsStore port. Weights and
// cuisine affinities live in JSONB columns keyed by feature name.
type PostgresWeightsStore struct{ DB *sql.DB }

var _ ports.WeightsStore = (*PostgresWeightsStore)(nil)

func NewPostgresWeightsStore(db *sql.DB) *PostgresWeightsStore {
	return &PostgresWeightsStore{DB: db}
}

func (s *PostgresWeightsStore) GetWeights(ctx context.Context, userID string) (_ domain.PreferenceWeights, _ bool, err error) {
	defer obs.Time(ctx, "weights.store.Get")(&err)

	if s.DB == nil {
		return domain.PreferenceWeights{}, false, errors.New("postgres weights store: DB is nil")
	}

	query := `
	SELECT weights, cuisine_affinity, updates, updated_at
	FROM preference_weights
	WHERE user_id = $1;
	`

	var rawWeights, rawAffinity []byte
	var updates int
	var updatedAt time.Time
	err = s.DB.QueryRowContext(ctx, query, userID).Scan(&rawWeights, &rawAffinity, &updates, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PreferenceWeights{}, false, nil
	}
	if err != nil {
		return domain.PreferenceWeights{}, false, fmt.Errorf("get weights user=%q: %w", userID, err)
	}

	w := domain.DefaultWeights(userID)
	var stored map[string]float64
	if err := json.Unmarshal(rawWeights, &stored); err != nil {
		return domain.PreferenceWeights{}, false, fmt.Errorf("get weights user=%q: decode weights: %w", userID, err)
	}
	for k, v := range stored {
		w.Weights[domain.Feature(k)] = v
	}
	if err := json.Unmarshal(rawAffinity, &w.CuisineAffinity); err != nil {
		return domain.PreferenceWeights{}, false, fmt.Errorf("get weights user=%q: decode affinity: %w", userID, err)
	}
	if w.CuisineAffinity == nil {
		w.CuisineAffinity = map[string]float64{}
	}
	w.Updates = updates
	w.UpdatedAt = updatedAt

	return w, true, nil
}

func (s *PostgresWeightsStore) PutWeights(ctx context.Context, w domain.PreferenceWeights) (err error) {
	defer obs.Time(ctx, "weights.store.Put")(&err)

	if s.DB == nil {
		return errors.New("postgres weights store: DB is nil")
	}

	weights := make(map[string]float64, len(w.Weights))
	for k, v := range w.Weights {
		weights[string(k)] = v
	}
	rawWeights, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("put weights user=%q: encode weights: %w", w.UserID, err)
	}
	affinity := w.CuisineAffinity
	if affinity == nil {
		affinity = map[string]float64{}
	}
	rawAffinity, err := json.Marshal(affinity)
	if err != nil {
		return fmt.Errorf("put weights user=%q: encode affinity: %w", w.UserID, err)
	}

	query := `
	INSERT INTO preference_weights (user_id, weights, cuisine_affinity, updates, updated_at)
	VALUES ($1, $2::jsonb, $3::jsonb, $4, $5)
	ON CONFLICT (user_id) DO UPDATE
	SET weights = EXCLUDED.weights,
		cuisine_affinity = EXCLUDED.cuisine_affinity,
		updates = EXCLUDED.updates,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, query, w.UserID, string(rawWeights), string(rawAffinity), w.Updates, w.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("put weights user=%q: %w", w.UserID, err)
	}
	return nil
}

func (s *PostgresWeightsStore) DeleteWeights(ctx context.Context, userID string) (err error) {
	defer obs.Time(ctx, "weights.store.Delete")(&err)

	if s.DB == nil {
		return errors.New("postgres weights store: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM preference_weights WHERE user_id = $1;`, userID); err != nil {
		return fmt.Errorf("delete weights user=%q: %w", userID, err)
	}
	return nil
}
