package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func snapshotWithEvents(events []Event) *EventSnapshot {
	return &EventSnapshot{
		SnapshotID:  "snap-1",
		CapturedAt:  time.Now(),
		AggregateID: "agg-1",
		Events:      events,
		Summary:     summarizeWindow(events),
	}
}

func TestAnalyzeSingleFailureIsNotSystemic(t *testing.T) {
	events := lifecycleEvents("agg-1")
	chain := AnalyzeCausalChain(snapshotWithEvents(events), ErrorTypeRedefinition, SeverityError)

	require.NotNil(t, chain)
	require.Contains(t, chain.Description, "REDEFINITION_FAILURE fault following")
	require.NotEmpty(t, chain.Suggestions)
}

func TestAnalyzeRepeatedFailuresAreSystemic(t *testing.T) {
	base := time.Now()
	events := []Event{
		{Type: RedefinitionFailed, Version: 1, Timestamp: base},
		{Type: HotSwapRequested, Version: 2, Timestamp: base.Add(time.Second)},
		{Type: RedefinitionFailed, Version: 3, Timestamp: base.Add(2 * time.Second)},
	}

	chain := AnalyzeCausalChain(snapshotWithEvents(events), ErrorTypeRedefinition, SeverityError)
	require.Contains(t, chain.Description, "systemic")
}

func TestAnalyzeCriticalSeverityEscalatesFirst(t *testing.T) {
	events := lifecycleEvents("agg-1")
	chain := AnalyzeCausalChain(snapshotWithEvents(events), ErrorTypeResourceExhaustion, SeverityCritical)

	require.NotEmpty(t, chain.Suggestions)
	require.Contains(t, chain.Suggestions[0], "Escalate")
}

func TestAnalyzeEmptySnapshot(t *testing.T) {
	chain := AnalyzeCausalChain(snapshotWithEvents(nil), ErrorTypeValidation, SeverityWarning)

	require.Equal(t, "no event history available for causal analysis", chain.Description)
	require.NotEmpty(t, chain.Suggestions)
}

func TestSuggestionsMatchErrorType(t *testing.T) {
	events := lifecycleEvents("agg-1")

	validation := AnalyzeCausalChain(snapshotWithEvents(events), ErrorTypeValidation, SeverityWarning)
	require.Contains(t, validation.Suggestions[0], "bytecode")

	exhaustion := AnalyzeCausalChain(snapshotWithEvents(events), ErrorTypeResourceExhaustion, SeverityWarning)
	require.Contains(t, exhaustion.Suggestions[0], "memory")
}
