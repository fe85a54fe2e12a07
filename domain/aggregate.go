package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// Class status values derived from the event fold
const (
	StatusPending   = "pending"
	StatusValidated = "validated"
	StatusRejected  = "rejected"
	StatusSwapped   = "swapped"
	StatusFailed    = "failed"
)

// EventReader is the read side of the event store used for reconstruction
// and snapshot capture
type EventReader interface {
	GetEvents(ctx context.Context, aggregateType, aggregateID string) ([]Event, error)
	LatestEvents(ctx context.Context, aggregateType, aggregateID string, limit int) ([]Event, error)
}

// ClassState is the current state of a hot-swappable class, derived
// solely by folding its ordered event history
type ClassState struct {
	AggregateID       string    `json:"aggregate_id"`
	ClassName         string    `json:"class_name"`
	Version           int       `json:"version"`
	Status            string    `json:"status"`
	SwapRequests      int       `json:"swap_requests"`
	RedefinitionCount int       `json:"redefinition_count"`
	FailureCount      int       `json:"failure_count"`
	InstanceCount     int       `json:"instance_count"`
	LastFailureReason string    `json:"last_failure_reason,omitempty"`
	LastSwapAt        time.Time `json:"last_swap_at,omitempty"`
	UnhandledEvents   int       `json:"unhandled_events"`
}

// Reconstructor replays an aggregate's event history into current state
type Reconstructor struct {
	store EventReader
}

// NewReconstructor creates a new reconstructor
func NewReconstructor(store EventReader) *Reconstructor {
	return &Reconstructor{store: store}
}

// Reconstruct folds the aggregate's events oldest to newest and returns the
// resulting state. It returns nil when the aggregate has no events. Store
// unavailability also yields an absent aggregate instead of an error.
func (r *Reconstructor) Reconstruct(ctx context.Context, aggregateID string) (*ClassState, error) {
	events, err := r.store.GetEvents(ctx, AggregateTypeClass, aggregateID)
	if err != nil {
		log.Warn().Err(err).Str("aggregateID", aggregateID).Msg("Event store unavailable, treating aggregate as absent")
		return nil, nil
	}

	if len(events) == 0 {
		return nil, nil
	}

	state := &ClassState{AggregateID: aggregateID}
	for _, event := range events {
		state.apply(event)
	}

	return state, nil
}

// apply is the per-event transition function. Event kinds without a
// transition leave the state unchanged and are counted in UnhandledEvents.
func (s *ClassState) apply(event Event) {
	switch event.Type {
	case ClassFileChanged:
		var data ClassFileChangedEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.Status = StatusPending
		}

	case BytecodeValidated:
		var data BytecodeValidatedEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.Status = StatusValidated
		}

	case BytecodeRejected:
		var data BytecodeRejectedEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.Status = StatusRejected
			s.FailureCount++
			s.LastFailureReason = data.Reason
		}

	case HotSwapRequested:
		var data HotSwapRequestedEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.SwapRequests++
		}

	case RedefinitionSucceeded:
		var data ClassRedefinitionSucceededEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.Status = StatusSwapped
			s.RedefinitionCount++
			s.InstanceCount = data.AffectedInstances
			s.LastSwapAt = event.Timestamp
		}

	case RedefinitionFailed:
		var data ClassRedefinitionFailedEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.Status = StatusFailed
			s.FailureCount++
			s.LastFailureReason = data.FailureReason
		}

	case InstancesUpdated:
		var data InstancesUpdatedEvent
		if decodeEventData(event.Data, &data) {
			s.ClassName = data.ClassName
			s.InstanceCount = data.UpdatedInstances
		}

	default:
		s.UnhandledEvents++
	}

	s.Version = event.Version
}

// decodeEventData decodes an event payload into the target struct. The
// in-memory store carries typed payloads while the database store carries
// raw JSON, so both shapes are handled.
func decodeEventData(data interface{}, target interface{}) bool {
	raw, ok := data.([]byte)
	if !ok {
		encoded, err := json.Marshal(data)
		if err != nil {
			return false
		}
		raw = encoded
	}
	return json.Unmarshal(raw, target) == nil
}
