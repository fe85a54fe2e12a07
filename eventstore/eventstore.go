package eventstore

import (
	"context"
	"errors"

	"example.com/hotswap/services/recovery/domain"
)

// ErrConcurrentModification is returned when an append declares a version
// other than currentVersion+1 for its aggregate.
var ErrConcurrentModification = errors.New("concurrent modification: stale aggregate version")

// EventStore is the interface for event storage
type EventStore interface {
	// Append appends a single event. The event's version must be exactly
	// one past the aggregate's current version or the append is rejected
	// with ErrConcurrentModification; the log is never silently overwritten.
	Append(ctx context.Context, event domain.Event) error

	// GetEvents returns all events for an aggregate ordered by version ascending
	GetEvents(ctx context.Context, aggregateType, aggregateID string) ([]domain.Event, error)

	// LatestEvents returns at most limit of the newest events for an
	// aggregate, still ordered by version ascending
	LatestEvents(ctx context.Context, aggregateType, aggregateID string, limit int) ([]domain.Event, error)

	// CurrentVersion returns the aggregate's current version, 0 if absent
	CurrentVersion(ctx context.Context, aggregateID string) (int, error)

	// GetUnprocessedEvents gets events not yet picked up by projections
	GetUnprocessedEvents(ctx context.Context, limit int) ([]domain.Event, error)

	// MarkEventProcessed marks an event as projected
	MarkEventProcessed(ctx context.Context, eventID string) error
}
