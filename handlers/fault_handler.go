package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/eventstore"
	"example.com/hotswap/services/recovery/utils"
)

// Decision outcome values
const (
	OutcomeAutoExecute = "auto-execute"
	OutcomeRecommended = "recommended"
)

// errorPatternThreshold marks an aggregate as repeatedly failing
const errorPatternThreshold = 3

// defaultWindowSize bounds the snapshot event window
const defaultWindowSize = 10

// Decision is the result of handling one fault: the classification, the
// selected strategy, the gating outcome, and the rendered report. Execution
// is left to an external executor consuming the published decision.
type Decision struct {
	AggregateID    string              `json:"aggregate_id"`
	ErrorType      domain.ErrorType    `json:"error_type"`
	Severity       string              `json:"severity"`
	Strategy       domain.Strategy     `json:"strategy"`
	RiskLevel      domain.RiskLevel    `json:"risk_level"`
	AutoExecutable bool                `json:"auto_executable"`
	Outcome        string              `json:"outcome"`
	SnapshotID     string              `json:"snapshot_id"`
	Report         string              `json:"report"`
	CausalChain    *domain.CausalChain `json:"causal_chain,omitempty"`
	DecidedAt      time.Time           `json:"decided_at"`
}

// DecisionPublisher dispatches decisions to the external executor
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, decision Decision) error
}

// ReportSink persists rendered reports for later retrieval
type ReportSink interface {
	SaveReport(ctx context.Context, decision Decision) error
}

// FaultHandler runs the fault pipeline: capture context and snapshot,
// classify, assess severity, select and gate a recovery strategy, render
// the debugging report, and hand the decision off for async dispatch.
type FaultHandler struct {
	snapshots  *domain.SnapshotBuilder
	classifier *domain.Classifier
	assessor   *domain.SeverityAssessor
	selector   *domain.Selector
	reports    *domain.ReportGenerator
	auth       domain.AuthorizationProvider
	publisher  DecisionPublisher
	sink       ReportSink
	windowSize int

	mu          sync.Mutex
	errorCounts map[string]int
}

// NewFaultHandler creates a fault handler. The publisher and sink are
// optional; the authorization provider gates high-risk strategies.
func NewFaultHandler(store eventstore.EventStore, auth domain.AuthorizationProvider, publisher DecisionPublisher, sink ReportSink) *FaultHandler {
	return &FaultHandler{
		snapshots:   domain.NewSnapshotBuilder(store),
		classifier:  domain.NewClassifier(),
		assessor:    domain.NewSeverityAssessor(),
		selector:    domain.NewSelector(),
		reports:     domain.NewReportGenerator(),
		auth:        auth,
		publisher:   publisher,
		sink:        sink,
		windowSize:  defaultWindowSize,
		errorCounts: make(map[string]int),
	}
}

// SetWindowSize overrides the default snapshot window size
func (h *FaultHandler) SetWindowSize(size int) {
	if size > 0 {
		h.windowSize = size
	}
}

// Capture samples the environment and the aggregate's recent event window.
// It runs synchronously on the faulting path and never fails.
func (h *FaultHandler) Capture(ctx context.Context, aggregateID string) (*domain.EventSnapshot, *domain.ErrorContext) {
	errCtx := domain.CaptureContext()
	snapshot := h.snapshots.Build(ctx, aggregateID, h.windowSize)
	return snapshot, errCtx
}

// HandleError captures diagnostics for an arbitrary error, wraps it in a
// contextual fault, and runs the pipeline.
func (h *FaultHandler) HandleError(ctx context.Context, err error, aggregateID string) Decision {
	snapshot, errCtx := h.Capture(ctx, aggregateID)
	fault := domain.WrapFault(err, snapshot, errCtx)
	return h.Process(ctx, fault)
}

// Process classifies an already-constructed fault, selects and gates a
// recovery strategy, and renders the report. The decision is published
// asynchronously so the faulting path stays synchronous and bounded.
func (h *FaultHandler) Process(ctx context.Context, fault domain.Fault) Decision {
	errorType := h.classifier.Classify(fault)
	severity := h.assessor.Assess(fault)
	strategy := h.selector.Select(errorType, severity)
	attrs := strategy.Attributes()
	autoExecutable := h.selector.CanExecuteAutomatically(strategy, h.auth)

	snapshot := fault.Snapshot()
	chain := domain.AnalyzeCausalChain(snapshot, errorType, severity)
	report := h.reports.Generate(fault, chain)

	aggregateID := ""
	snapshotID := ""
	if snapshot != nil {
		aggregateID = snapshot.AggregateID
		snapshotID = snapshot.SnapshotID
	}

	outcome := OutcomeRecommended
	if autoExecutable {
		outcome = OutcomeAutoExecute
	}

	decision := Decision{
		AggregateID:    aggregateID,
		ErrorType:      errorType,
		Severity:       severity.String(),
		Strategy:       strategy,
		RiskLevel:      attrs.Risk,
		AutoExecutable: autoExecutable,
		Outcome:        outcome,
		SnapshotID:     snapshotID,
		Report:         report,
		CausalChain:    chain,
		DecidedAt:      time.Now(),
	}

	h.trackError(aggregateID)

	log.Info().
		Str("aggregateID", aggregateID).
		Str("errorType", string(errorType)).
		Str("severity", decision.Severity).
		Str("strategy", string(strategy)).
		Bool("autoExecutable", autoExecutable).
		Msg("Recovery decision made")

	h.dispatch(decision)

	return decision
}

// ErrorCount returns the number of faults seen for an aggregate
func (h *FaultHandler) ErrorCount(aggregateID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errorCounts[aggregateID]
}

// HasErrorPattern reports whether the aggregate has faulted often enough
// to look systemic
func (h *FaultHandler) HasErrorPattern(aggregateID string) bool {
	return h.ErrorCount(aggregateID) >= errorPatternThreshold
}

func (h *FaultHandler) trackError(aggregateID string) {
	if aggregateID == "" {
		return
	}
	h.mu.Lock()
	h.errorCounts[aggregateID]++
	count := h.errorCounts[aggregateID]
	h.mu.Unlock()

	if count >= errorPatternThreshold {
		log.Warn().
			Str("aggregateID", aggregateID).
			Int("faults", count).
			Msg("Repeated fault pattern detected")
	}
}

// dispatch hands the decision to the publisher and sink off the faulting path
func (h *FaultHandler) dispatch(decision Decision) {
	if h.publisher == nil && h.sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if pretty, err := utils.PrettyPrint(decision); err == nil {
			log.Debug().Msgf("Dispatching decision:\n%s", pretty)
		}

		if h.publisher != nil {
			if err := h.publisher.PublishDecision(ctx, decision); err != nil {
				log.Error().Err(err).Str("snapshotID", decision.SnapshotID).Msg("Failed to publish recovery decision")
			}
		}
		if h.sink != nil {
			if err := h.sink.SaveReport(ctx, decision); err != nil {
				log.Error().Err(err).Str("snapshotID", decision.SnapshotID).Msg("Failed to persist fault report")
			}
		}
	}()
}
