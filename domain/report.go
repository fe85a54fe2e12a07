package domain

import (
	"fmt"
	"strings"
	"time"
)

// Report section labels. Ordering and labels are part of the external
// contract for tooling that parses reports.
const (
	ReportHeader             = "=== HOT-SWAP FAULT REPORT ==="
	LabelMessage             = "Message:"
	LabelCausedBy            = "Caused by:"
	LabelCapturedAt          = "Captured at:"
	LabelContext             = "Context:"
	LabelSnapshot            = "Snapshot:"
	LabelEventHistory        = "Event history:"
	LabelCausalAnalysis      = "Causal analysis:"
	LabelSuggestions         = "Suggestions:"
	LabelSystemState         = "System state:"
	LabelReproduction        = "Reproduction:"
	LabelSnapshotID          = "Snapshot ID:"
	LabelLikelyReproducible  = "Likely reproducible:"
	reportHistoryPlaceholder = "  (no events captured)"
)

// ReportGenerator renders plain-text debugging reports with a fixed
// section order.
type ReportGenerator struct{}

// NewReportGenerator creates a report generator
func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{}
}

// Generate renders the report for a fault and its derived causal chain.
// Sections appear in fixed order: header and message, wrapped cause,
// capture timestamp, context summary, snapshot summary, event history
// oldest to newest, causal analysis, system state, reproduction block.
func (g *ReportGenerator) Generate(fault Fault, chain *CausalChain) string {
	var b strings.Builder

	b.WriteString(ReportHeader + "\n")
	fmt.Fprintf(&b, "%s %s\n", LabelMessage, fault.Message())

	if cause := fault.Cause(); cause != nil {
		fmt.Fprintf(&b, "%s %s\n", LabelCausedBy, cause.Message())
	}

	errCtx := fault.Context()
	capturedAt := time.Time{}
	if errCtx != nil {
		capturedAt = errCtx.CapturedAt
	}
	fmt.Fprintf(&b, "%s %s\n", LabelCapturedAt, capturedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "%s %s\n", LabelContext, errCtx.Summary())

	snapshot := fault.Snapshot()
	fmt.Fprintf(&b, "%s %s\n", LabelSnapshot, snapshotSummary(snapshot))

	b.WriteString(LabelEventHistory + "\n")
	if snapshot.IsEmpty() {
		b.WriteString(reportHistoryPlaceholder + "\n")
	} else {
		for i, event := range snapshot.Events {
			fmt.Fprintf(&b, "  %d. %s %s (version %d)\n",
				i+1, event.Timestamp.Format(time.RFC3339), event.Type, event.Version)
		}
	}

	if chain != nil {
		fmt.Fprintf(&b, "%s %s\n", LabelCausalAnalysis, chain.Description)
		b.WriteString(LabelSuggestions + "\n")
		for i, suggestion := range chain.Suggestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, suggestion)
		}
	}

	fmt.Fprintf(&b, "%s %s\n", LabelSystemState, systemStateLine(errCtx))

	b.WriteString(LabelReproduction + "\n")
	snapshotID := ""
	if snapshot != nil {
		snapshotID = snapshot.SnapshotID
	}
	fmt.Fprintf(&b, "  %s %s\n", LabelSnapshotID, snapshotID)
	fmt.Fprintf(&b, "  %s %t\n", LabelLikelyReproducible, likelyReproducible(snapshot))

	return b.String()
}

func snapshotSummary(snapshot *EventSnapshot) string {
	if snapshot == nil {
		return "snapshot unavailable"
	}
	return snapshot.Summary
}

func systemStateLine(errCtx *ErrorContext) string {
	if errCtx == nil {
		return "unavailable"
	}
	memory := "n/a"
	if usage, ok := errCtx.MemoryUsageFraction(); ok {
		memory = fmt.Sprintf("%.1f%%", usage*100)
	}
	thread := errCtx.ThreadName
	if thread == "" {
		thread = "unknown"
	}
	return fmt.Sprintf("memory=%s thread=%s", memory, thread)
}

// likelyReproducible holds when the snapshot is non-empty and the
// originating event chain is available.
func likelyReproducible(snapshot *EventSnapshot) bool {
	return snapshot != nil && !snapshot.IsEmpty()
}
