package repositories

import (
	"context"
	"roadtrip-meal-service/internal/domain"
	"roadtrip-meal-service/internal/ports"
	"sync"
)

// MemoryWeightsStore keeps weights in process. It is used when no
// DATABASE_URL is configured and in tests.
type MemoryWeightsStore struct {
	mu      sync.RWMutex
	weights map[string]domain.PreferenceWeights
}

var _ ports.WeightsStore = (*MemoryWeightsStore)(nil)

func NewMemoryWeightsStore() *MemoryWeightsStore {
	return &MemoryWeightsStore{weights: map[string]domain.PreferenceWeights{}}
}

func (s *MemoryWeightsStore) GetWeights(_ context.Context, userID string) (domain.PreferenceWeights, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.weights[userID]
	if !ok {
		return domain.PreferenceWeights{}, false, nil
	}
	return w.Clone(), true, nil
}

func (s *MemoryWeightsStore) PutWeights(_ context.Context, w domain.PreferenceWeights) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.weights[w.UserID] = w.Clone()
	return nil
}

func (s *MemoryWeightsStore) DeleteWeights(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.weights, userID)
	return nil
}

// MemorySelectionLog is an in-process append-only event log.
type MemorySelectionLog struct {
	mu     sync.Mutex
	events []domain.UserSelectionEvent
	seen   map[string]struct{}
}

var _ ports.SelectionLog = (*MemorySelectionLog)(nil)

func NewMemorySelectionLog() *MemorySelectionLog {
	return &MemorySelectionLog{seen: map[string]struct{}{}}
}

func (l *MemorySelectionLog) AppendSelection(_ context.Context, event domain.UserSelectionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.ID != "" {
		if _, ok := l.seen[event.ID]; ok {
			return nil
		}
		l.seen[event.ID] = struct{}{}
	}
	l.events = append(l.events, event)
	return nil
}

// Events returns the recorded events for userID in append order.
func (l *MemorySelectionLog) Events(userID string) []domain.UserSelectionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.UserSelectionEvent, 0, len(l.events))
	for _, e := range l.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
