package eventstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/hotswap/services/recovery/domain"
)

func appendTestEvent(t *testing.T, store *MemoryEventStore, aggregateID string, version int, eventType string) {
	t.Helper()
	err := store.Append(context.Background(), domain.Event{
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeClass,
		Type:          eventType,
		Version:       version,
		Timestamp:     time.Now(),
		Data:          domain.ClassFileChangedEvent{ClassName: "com.example.Service"},
	})
	require.NoError(t, err)
}

func TestAppendIncrementsVersion(t *testing.T) {
	store := NewMemoryEventStore()

	appendTestEvent(t, store, "agg-1", 1, domain.ClassFileChanged)
	appendTestEvent(t, store, "agg-1", 2, domain.BytecodeValidated)
	appendTestEvent(t, store, "agg-1", 3, domain.HotSwapRequested)

	events, err := store.GetEvents(context.Background(), domain.AggregateTypeClass, "agg-1")
	require.NoError(t, err)
	require.Len(t, events, 3)

	for i, event := range events {
		require.Equal(t, i+1, event.Version)
		require.NotEmpty(t, event.ID)
	}

	current, err := store.CurrentVersion(context.Background(), "agg-1")
	require.NoError(t, err)
	require.Equal(t, 3, current)
}

func TestAppendRejectsStaleVersion(t *testing.T) {
	store := NewMemoryEventStore()

	appendTestEvent(t, store, "agg-1", 1, domain.ClassFileChanged)
	appendTestEvent(t, store, "agg-1", 2, domain.BytecodeValidated)
	appendTestEvent(t, store, "agg-1", 3, domain.HotSwapRequested)

	// A gap in the version sequence must be rejected
	err := store.Append(context.Background(), domain.Event{
		AggregateID:   "agg-1",
		AggregateType: domain.AggregateTypeClass,
		Type:          domain.RedefinitionSucceeded,
		Version:       5,
	})
	require.ErrorIs(t, err, ErrConcurrentModification)

	// Reusing the current version must be rejected too
	err = store.Append(context.Background(), domain.Event{
		AggregateID:   "agg-1",
		AggregateType: domain.AggregateTypeClass,
		Type:          domain.RedefinitionSucceeded,
		Version:       3,
	})
	require.ErrorIs(t, err, ErrConcurrentModification)

	// History is unchanged after the rejected appends
	events, err := store.GetEvents(context.Background(), domain.AggregateTypeClass, "agg-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
}

func TestVersionsAreIndependentPerAggregate(t *testing.T) {
	store := NewMemoryEventStore()

	appendTestEvent(t, store, "agg-1", 1, domain.ClassFileChanged)
	appendTestEvent(t, store, "agg-2", 1, domain.ClassFileChanged)
	appendTestEvent(t, store, "agg-2", 2, domain.BytecodeValidated)

	current, err := store.CurrentVersion(context.Background(), "agg-1")
	require.NoError(t, err)
	require.Equal(t, 1, current)

	current, err = store.CurrentVersion(context.Background(), "agg-2")
	require.NoError(t, err)
	require.Equal(t, 2, current)
}

func TestLatestEventsBoundsWindow(t *testing.T) {
	store := NewMemoryEventStore()

	for v := 1; v <= 15; v++ {
		appendTestEvent(t, store, "agg-1", v, domain.HotSwapRequested)
	}

	events, err := store.LatestEvents(context.Background(), domain.AggregateTypeClass, "agg-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 10)

	// The window holds the newest events, oldest first
	require.Equal(t, 6, events[0].Version)
	require.Equal(t, 15, events[9].Version)
}

func TestConcurrentAppendHasSingleWinner(t *testing.T) {
	store := NewMemoryEventStore()
	appendTestEvent(t, store, "agg-1", 1, domain.ClassFileChanged)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Append(context.Background(), domain.Event{
				AggregateID:   "agg-1",
				AggregateType: domain.AggregateTypeClass,
				Type:          domain.HotSwapRequested,
				Version:       2,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrConcurrentModification)
		}
	}
	require.Equal(t, 1, winners)
}

func TestMarkEventProcessed(t *testing.T) {
	store := NewMemoryEventStore()

	for v := 1; v <= 3; v++ {
		appendTestEvent(t, store, fmt.Sprintf("agg-%d", v), 1, domain.ClassFileChanged)
	}

	pending, err := store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	require.NoError(t, store.MarkEventProcessed(context.Background(), pending[0].ID))

	pending, err = store.GetUnprocessedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}
