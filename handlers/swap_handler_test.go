package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/eventstore"
)

// MockStateCache for testing cache invalidation
type MockStateCache struct {
	mock.Mock
}

func (m *MockStateCache) DeleteClassState(ctx context.Context, aggregateID string) error {
	args := m.Called(ctx, aggregateID)
	return args.Error(0)
}

func TestSwapLifecycleAppendsSequentialVersions(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	handler := NewSwapHandler(store, nil, nil)
	ctx := context.Background()

	require.NoError(t, handler.HandleClassFileChanged(ctx, ClassFileChangedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
	}))
	require.NoError(t, handler.HandleBytecodeValidated(ctx, BytecodeValidatedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service", Compatible: true,
	}))
	require.NoError(t, handler.HandleHotSwapRequested(ctx, HotSwapRequestedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service", RequestedBy: "watcher",
	}))
	require.NoError(t, handler.HandleRedefinitionSucceeded(ctx, RedefinitionSucceededCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service", AffectedInstances: 4,
	}))

	events, err := store.GetEvents(ctx, domain.AggregateTypeClass, "agg-1")
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, event := range events {
		require.Equal(t, i+1, event.Version)
	}

	state, err := domain.NewReconstructor(store).Reconstruct(ctx, "agg-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, domain.StatusSwapped, state.Status)
	require.Equal(t, 4, state.InstanceCount)
}

func TestSwapEventsInvalidateCache(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	cache := new(MockStateCache)
	cache.On("DeleteClassState", mock.Anything, "agg-1").Return(nil)

	handler := NewSwapHandler(store, nil, cache)

	require.NoError(t, handler.HandleClassFileChanged(context.Background(), ClassFileChangedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
	}))

	cache.AssertCalled(t, "DeleteClassState", mock.Anything, "agg-1")
}

func TestBytecodeRejectedRunsFaultPipeline(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	faults := NewFaultHandler(store, nil, nil, nil)
	handler := NewSwapHandler(store, faults, nil)
	ctx := context.Background()

	require.NoError(t, handler.HandleClassFileChanged(ctx, ClassFileChangedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
	}))
	require.NoError(t, handler.HandleBytecodeRejected(ctx, BytecodeRejectedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service", Reason: "incompatible change",
	}))

	// The rejection is recorded as an event and tracked as a fault
	events, err := store.GetEvents(ctx, domain.AggregateTypeClass, "agg-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, domain.BytecodeRejected, events[1].Type)

	require.Equal(t, 1, faults.ErrorCount("agg-1"))
}

func TestRedefinitionFailedRunsFaultPipeline(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	faults := NewFaultHandler(store, nil, nil, nil)
	handler := NewSwapHandler(store, faults, nil)
	ctx := context.Background()

	require.NoError(t, handler.HandleClassFileChanged(ctx, ClassFileChangedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
	}))
	require.NoError(t, handler.HandleRedefinitionFailed(ctx, RedefinitionFailedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
		FailureReason: "schema change", RuntimeError: "UnsupportedOperation",
	}))

	require.Equal(t, 1, faults.ErrorCount("agg-1"))
}

func TestAppendSurfacesConcurrentModification(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	handler := NewSwapHandler(store, nil, nil)
	ctx := context.Background()

	// Seed history past what the handler will compute from a stale read
	require.NoError(t, store.Append(ctx, domain.Event{
		AggregateID: "agg-1", AggregateType: domain.AggregateTypeClass,
		Type: domain.ClassFileChanged, Version: 1,
	}))

	staleStore := &staleVersionStore{MemoryEventStore: store}
	staleHandler := NewSwapHandler(staleStore, nil, nil)

	err := staleHandler.HandleBytecodeValidated(ctx, BytecodeValidatedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
	})
	require.ErrorIs(t, err, eventstore.ErrConcurrentModification)

	// The non-stale handler still appends fine afterwards
	require.NoError(t, handler.HandleBytecodeValidated(ctx, BytecodeValidatedCommand{
		AggregateID: "agg-1", ClassName: "com.example.Service",
	}))
}

// staleVersionStore reports an out-of-date current version to simulate a
// concurrent writer landing between read and append
type staleVersionStore struct {
	*eventstore.MemoryEventStore
}

func (s *staleVersionStore) CurrentVersion(_ context.Context, _ string) (int, error) {
	return 0, nil
}
