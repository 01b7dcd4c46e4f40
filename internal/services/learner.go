package services

import (
	"context"
	"fmt"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/ports"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LearnerConfig struct {
	// Rate pulls weights toward features of chosen restaurants.
	Rate float64
	// NegativeRate pushes weights away from features of restaurants that
	// were shown but not chosen. It should be smaller than Rate.
	NegativeRate float64
	MinWeight    float64
	MaxWeight    float64
}

var DefaultLearnerConfig = LearnerConfig{Rate: 0.1, NegativeRate: 0.03, MinWeight: 0.05, MaxWeight: 1}

// Learner updates per-user PreferenceWeights online from selection events.
// Updates for one user are serialized; readers never wait on them and see
// the last stored snapshot.
type Learner struct {
	store  ports.WeightsStore
	events ports.SelectionLog
	scorer *Scorer
	cfg    LearnerConfig
	locks  keyedMutex
	now    func() time.Time
	log    *zap.Logger
}

func NewLearner(store ports.WeightsStore, events ports.SelectionLog, scorer *Scorer, cfg LearnerConfig, log *zap.Logger) *Learner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Learner{
		store:  store,
		events: events,
		scorer: scorer,
		cfg:    cfg,
		now:    time.Now,
		log:    log,
	}
}

// GetWeights returns the user's weights, or uniform defaults when the user
// is anonymous or has no history.
func (l *Learner) GetWeights(ctx context.Context, userID string) (domain.PreferenceWeights, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.DefaultWeights(""), nil
	}
	w, ok, err := l.store.GetWeights(ctx, userID)
	if err != nil {
		return domain.PreferenceWeights{}, fmt.Errorf("get weights: %w", err)
	}
	if !ok {
		return domain.DefaultWeights(userID), nil
	}
	return w, nil
}

// Reset drops everything learned for the user. Logged events are kept.
func (l *Learner) Reset(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("reset weights: %w: user id is required", domain.ErrInvalidRequest)
	}
	unlock := l.locks.Lock(userID)
	defer unlock()

	if err := l.store.DeleteWeights(ctx, userID); err != nil {
		return fmt.Errorf("reset weights user=%q: %w", userID, err)
	}
	return nil
}

// RecordSelections appends the event to the selection log and folds it into
// the user's weights, returning the updated weights.
func (l *Learner) RecordSelections(ctx context.Context, event domain.UserSelectionEvent) (domain.PreferenceWeights, error) {
	if strings.TrimSpace(event.UserID) == "" {
		return domain.PreferenceWeights{}, fmt.Errorf("record selections: %w: user_id is required", domain.ErrInvalidRequest)
	}
	if len(event.Selected) == 0 {
		return domain.PreferenceWeights{}, fmt.Errorf("record selections: %w: at least one selected restaurant is required", domain.ErrInvalidRequest)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = l.now()
	}

	if err := l.events.AppendSelection(ctx, event); err != nil {
		return domain.PreferenceWeights{}, fmt.Errorf("record selections: append event: %w", err)
	}

	unlock := l.locks.Lock(event.UserID)
	defer unlock()

	current, err := l.GetWeights(ctx, event.UserID)
	if err != nil {
		return domain.PreferenceWeights{}, fmt.Errorf("record selections: %w", err)
	}

	next := l.apply(current, event)
	if err := l.store.PutWeights(ctx, next); err != nil {
		return domain.PreferenceWeights{}, fmt.Errorf("record selections: store weights: %w", err)
	}

	l.log.Debug("weights updated",
		zap.String("user_id", event.UserID),
		zap.Int("selected", len(event.Selected)),
		zap.Int("shown", len(event.Shown)),
		zap.Int("updates", next.Updates),
	)
	return next, nil
}

// apply is the pure update step: w += rate*(x-w) per chosen restaurant and
// w -= negRate*(x-w) per restaurant shown alongside but not chosen, clamped
// after every step. Cuisine affinities move toward 1 for chosen cuisines and
// decay toward 0 for passed-over ones.
func (l *Learner) apply(current domain.PreferenceWeights, event domain.UserSelectionEvent) domain.PreferenceWeights {
	next := current.Clone()
	constraints := event.PreferencesSnapshot.Constraints()

	chosenIDs := make(map[string]struct{}, len(event.Selected))
	chosenCuisines := map[string]struct{}{}
	for _, s := range event.Selected {
		chosenIDs[s.SourceID] = struct{}{}
		if c := domain.NormalizeTag(s.Cuisine); c != "" {
			chosenCuisines[c] = struct{}{}
		}
	}

	for _, s := range event.Selected {
		x := l.scorer.Features(s.Restaurant, constraints, current, event.PreferencesSnapshot.RadiusFor(s.MealType))
		for _, f := range domain.Features {
			w := next.Weight(f)
			next.Weights[f] = domain.Clamp(w+l.cfg.Rate*(x[f]-w), l.cfg.MinWeight, l.cfg.MaxWeight)
		}
	}
	for c := range chosenCuisines {
		a := next.CuisineAffinity[c]
		next.CuisineAffinity[c] = domain.Clamp(a+l.cfg.Rate*(1-a), 0, 1)
	}

	for _, s := range event.Shown {
		if _, chosen := chosenIDs[s.SourceID]; chosen {
			continue
		}
		x := l.scorer.Features(s.Restaurant, constraints, current, event.PreferencesSnapshot.RadiusFor(s.MealType))
		for _, f := range domain.Features {
			w := next.Weight(f)
			next.Weights[f] = domain.Clamp(w-l.cfg.NegativeRate*(x[f]-w), l.cfg.MinWeight, l.cfg.MaxWeight)
		}

		c := domain.NormalizeTag(s.Cuisine)
		if _, liked := chosenCuisines[c]; liked || c == "" {
			continue
		}
		if a, ok := next.CuisineAffinity[c]; ok {
			next.CuisineAffinity[c] = domain.Clamp(a-l.cfg.NegativeRate*a, 0, 1)
		}
	}

	next.UserID = event.UserID
	next.Updates++
	next.UpdatedAt = l.now().UTC()
	return next
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*keyedEntry{}
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
