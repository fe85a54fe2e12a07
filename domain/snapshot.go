package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventSnapshot is an immutable bundle of the recent event window for one
// aggregate, captured once at a fault boundary.
type EventSnapshot struct {
	SnapshotID  string    `json:"snapshot_id"`
	CapturedAt  time.Time `json:"captured_at"`
	AggregateID string    `json:"aggregate_id"`
	Events      []Event   `json:"events"`
	Summary     string    `json:"summary"`
}

// EventCount returns the number of events in the window
func (s *EventSnapshot) EventCount() int {
	if s == nil {
		return 0
	}
	return len(s.Events)
}

// IsEmpty reports whether the snapshot holds no events
func (s *EventSnapshot) IsEmpty() bool {
	return s.EventCount() == 0
}

// SnapshotBuilder builds event snapshots from the most recent window of an
// aggregate's history.
type SnapshotBuilder struct {
	store EventReader
}

// NewSnapshotBuilder creates a snapshot builder
func NewSnapshotBuilder(store EventReader) *SnapshotBuilder {
	return &SnapshotBuilder{store: store}
}

// Build captures the last windowSize events for the aggregate under a
// fresh snapshot id. The window bound keeps memory use constant regardless
// of history length. A store failure degrades to an empty snapshot; Build
// never fails on the faulting path.
func (b *SnapshotBuilder) Build(ctx context.Context, aggregateID string, windowSize int) *EventSnapshot {
	snapshot := &EventSnapshot{
		SnapshotID:  uuid.New().String(),
		CapturedAt:  time.Now(),
		AggregateID: aggregateID,
	}

	events, err := b.store.LatestEvents(ctx, AggregateTypeClass, aggregateID, windowSize)
	if err != nil {
		log.Warn().Err(err).Str("aggregateID", aggregateID).Msg("Snapshot capture degraded, event history unavailable")
		snapshot.Summary = "event history unavailable"
		return snapshot
	}

	snapshot.Events = append([]Event(nil), events...)
	snapshot.Summary = summarizeWindow(snapshot.Events)

	return snapshot
}

func summarizeWindow(events []Event) string {
	if len(events) == 0 {
		return "no events recorded"
	}
	span := events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
	return fmt.Sprintf("%d events spanning %s", len(events), span)
}
