package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/eventstore"
)

// capturingPublisher records published decisions for assertion
type capturingPublisher struct {
	decisions chan Decision
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{decisions: make(chan Decision, 1)}
}

func (p *capturingPublisher) PublishDecision(_ context.Context, decision Decision) error {
	p.decisions <- decision
	return nil
}

// capturingSink records saved reports for assertion
type capturingSink struct {
	reports chan Decision
}

func newCapturingSink() *capturingSink {
	return &capturingSink{reports: make(chan Decision, 1)}
}

func (s *capturingSink) SaveReport(_ context.Context, decision Decision) error {
	s.reports <- decision
	return nil
}

func storeWithRejectedValidation(t *testing.T, aggregateID string) *eventstore.MemoryEventStore {
	t.Helper()
	store := eventstore.NewMemoryEventStore()

	events := []struct {
		eventType string
		data      interface{}
	}{
		{domain.ClassFileChanged, domain.ClassFileChangedEvent{ClassName: "com.example.Service"}},
		{domain.BytecodeRejected, domain.BytecodeRejectedEvent{ClassName: "com.example.Service", Reason: "incompatible change"}},
	}
	for i, e := range events {
		require.NoError(t, store.Append(context.Background(), domain.Event{
			AggregateID:   aggregateID,
			AggregateType: domain.AggregateTypeClass,
			Type:          e.eventType,
			Version:       i + 1,
			Data:          e.data,
		}))
	}
	return store
}

func TestProcessValidationFault(t *testing.T) {
	store := storeWithRejectedValidation(t, "agg-1")
	publisher := newCapturingPublisher()
	sink := newCapturingSink()
	handler := NewFaultHandler(store, nil, publisher, sink)

	snapshot, errCtx := handler.Capture(context.Background(), "agg-1")
	require.NotNil(t, snapshot)
	require.NotNil(t, errCtx)
	require.Equal(t, 2, snapshot.EventCount())

	fault := domain.NewValidationFault("com.example.Service", "incompatible change", snapshot, errCtx)
	decision := handler.Process(context.Background(), fault)

	require.Equal(t, "agg-1", decision.AggregateID)
	require.Equal(t, domain.ErrorTypeValidation, decision.ErrorType)
	require.Equal(t, "WARNING", decision.Severity)
	require.Equal(t, domain.StrategyRejectChange, decision.Strategy)
	require.Equal(t, domain.RiskLow, decision.RiskLevel)
	require.True(t, decision.AutoExecutable)
	require.Equal(t, OutcomeAutoExecute, decision.Outcome)
	require.Equal(t, snapshot.SnapshotID, decision.SnapshotID)
	require.Contains(t, decision.Report, domain.ReportHeader)
	require.NotNil(t, decision.CausalChain)

	// The decision is dispatched asynchronously to publisher and sink
	select {
	case published := <-publisher.decisions:
		require.Equal(t, decision.SnapshotID, published.SnapshotID)
	case <-time.After(2 * time.Second):
		t.Fatal("decision was not published")
	}
	select {
	case saved := <-sink.reports:
		require.Equal(t, decision.Report, saved.Report)
	case <-time.After(2 * time.Second):
		t.Fatal("report was not saved")
	}
}

func TestProcessHighRiskRequiresAuthorization(t *testing.T) {
	store := storeWithRejectedValidation(t, "agg-1")
	handler := NewFaultHandler(store, nil, nil, nil)

	snapshot, errCtx := handler.Capture(context.Background(), "agg-1")
	fault := domain.NewResourceExhaustionFault("heap", 0.97, snapshot, errCtx)

	decision := handler.Process(context.Background(), fault)
	require.Equal(t, domain.StrategyEmergencyShutdown, decision.Strategy)
	require.Equal(t, domain.RiskHigh, decision.RiskLevel)
	require.False(t, decision.AutoExecutable)
	require.Equal(t, OutcomeRecommended, decision.Outcome)
}

func TestProcessHighRiskWithAllowlistedStrategy(t *testing.T) {
	store := storeWithRejectedValidation(t, "agg-1")
	auth := NewConfigAuthorizationProvider([]string{"EMERGENCY_SHUTDOWN"})
	handler := NewFaultHandler(store, auth, nil, nil)

	snapshot, errCtx := handler.Capture(context.Background(), "agg-1")
	fault := domain.NewResourceExhaustionFault("heap", 0.97, snapshot, errCtx)

	decision := handler.Process(context.Background(), fault)
	require.Equal(t, domain.StrategyEmergencyShutdown, decision.Strategy)
	require.True(t, decision.AutoExecutable)
	require.Equal(t, OutcomeAutoExecute, decision.Outcome)
}

func TestProcessWrappedFaultInheritsCauseClassification(t *testing.T) {
	store := storeWithRejectedValidation(t, "agg-1")
	handler := NewFaultHandler(store, nil, nil, nil)

	snapshot, errCtx := handler.Capture(context.Background(), "agg-1")
	inner := domain.NewResourceExhaustionFault("heap", 0.97, nil, nil)
	wrapped := domain.WrapFault(inner, snapshot, errCtx)

	decision := handler.Process(context.Background(), wrapped)

	// Classification and severity flow through the wrapper, and the report
	// references the wrapper's capture
	require.Equal(t, domain.ErrorTypeResourceExhaustion, decision.ErrorType)
	require.Equal(t, "CRITICAL", decision.Severity)
	require.Equal(t, snapshot.SnapshotID, decision.SnapshotID)
}

func TestHandleErrorWrapsArbitraryErrors(t *testing.T) {
	store := storeWithRejectedValidation(t, "agg-1")
	handler := NewFaultHandler(store, nil, nil, nil)

	decision := handler.HandleError(context.Background(), errors.New("unexpected runtime failure"), "agg-1")

	require.Equal(t, domain.ErrorTypeWrapped, decision.ErrorType)
	require.Equal(t, "ERROR", decision.Severity)
	require.Equal(t, domain.StrategyRetryOperation, decision.Strategy)
	require.True(t, decision.AutoExecutable)
	require.Contains(t, decision.Report, "unexpected runtime failure")
}

func TestErrorPatternTracking(t *testing.T) {
	store := storeWithRejectedValidation(t, "agg-1")
	handler := NewFaultHandler(store, nil, nil, nil)

	require.False(t, handler.HasErrorPattern("agg-1"))

	for i := 0; i < 3; i++ {
		handler.HandleError(context.Background(), errors.New("repeated failure"), "agg-1")
	}

	require.Equal(t, 3, handler.ErrorCount("agg-1"))
	require.True(t, handler.HasErrorPattern("agg-1"))
	require.False(t, handler.HasErrorPattern("agg-2"))
}

func TestCaptureDegradesWithoutHistory(t *testing.T) {
	handler := NewFaultHandler(eventstore.NewMemoryEventStore(), nil, nil, nil)

	snapshot, errCtx := handler.Capture(context.Background(), "missing")
	require.NotNil(t, snapshot)
	require.True(t, snapshot.IsEmpty())
	require.NotNil(t, errCtx)
}
