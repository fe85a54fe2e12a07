package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/hotswap/services/recovery/domain"
)

// MemoryEventStore is an in-memory event store. Appends to distinct
// aggregates are safe for concurrent writers; within one aggregate the
// optimistic version check serializes history. Reads return copies, so
// callers always observe a consistent point-in-time view.
type MemoryEventStore struct {
	mu        sync.RWMutex
	events    map[string][]domain.Event
	processed map[string]bool
}

// NewMemoryEventStore creates an empty in-memory event store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events:    make(map[string][]domain.Event),
		processed: make(map[string]bool),
	}
}

// Append appends an event, enforcing the optimistic version check
func (s *MemoryEventStore) Append(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.events[event.AggregateID]
	current := 0
	if len(history) > 0 {
		current = history[len(history)-1].Version
	}
	if event.Version != current+1 {
		return ErrConcurrentModification
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.events[event.AggregateID] = append(history, event)
	return nil
}

// GetEvents returns all events for the aggregate ordered by version ascending
func (s *MemoryEventStore) GetEvents(_ context.Context, _, aggregateID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Event(nil), s.events[aggregateID]...), nil
}

// LatestEvents returns at most limit of the newest events, version ascending
func (s *MemoryEventStore) LatestEvents(_ context.Context, _, aggregateID string, limit int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.events[aggregateID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]domain.Event(nil), history...), nil
}

// CurrentVersion returns the aggregate's current version, 0 if absent
func (s *MemoryEventStore) CurrentVersion(_ context.Context, aggregateID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.events[aggregateID]
	if len(history) == 0 {
		return 0, nil
	}
	return history[len(history)-1].Version, nil
}

// GetUnprocessedEvents returns events not yet marked processed, oldest first
func (s *MemoryEventStore) GetUnprocessedEvents(_ context.Context, limit int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []domain.Event
	for _, history := range s.events {
		for _, event := range history {
			if !s.processed[event.ID] {
				pending = append(pending, event)
			}
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Timestamp.Before(pending[j].Timestamp)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkEventProcessed marks an event as projected
func (s *MemoryEventStore) MarkEventProcessed(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed[eventID] = true
	return nil
}
