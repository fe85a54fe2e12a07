package domain

import (
	"fmt"
)

// CausalChain is a derived explanation of a fault occurrence plus ordered
// remediation suggestions. It is computed from a snapshot and never
// persisted independently of it.
type CausalChain struct {
	Description string   `json:"description"`
	Suggestions []string `json:"suggestions"`
}

// failureThreshold marks a window as systemic rather than transient
const failureThreshold = 2

// AnalyzeCausalChain derives a causal explanation from the snapshot's
// event window and the fault's classification.
func AnalyzeCausalChain(snapshot *EventSnapshot, errorType ErrorType, severity Severity) *CausalChain {
	if snapshot.IsEmpty() {
		return &CausalChain{
			Description: "no event history available for causal analysis",
			Suggestions: suggestionsFor(errorType),
		}
	}

	failures := 0
	for _, event := range snapshot.Events {
		if event.Type == RedefinitionFailed || event.Type == BytecodeRejected {
			failures++
		}
	}

	last := snapshot.Events[len(snapshot.Events)-1]
	description := fmt.Sprintf("%s fault following %s at version %d", errorType, last.Type, last.Version)
	if failures >= failureThreshold {
		description = fmt.Sprintf("%d failures within the last %d events suggest a systemic cause, not a transient one", failures, snapshot.EventCount())
	}

	suggestions := suggestionsFor(errorType)
	if severity == SeverityCritical {
		suggestions = append([]string{"Escalate: severity is CRITICAL and the runtime may be unstable"}, suggestions...)
	}

	return &CausalChain{
		Description: description,
		Suggestions: suggestions,
	}
}

func suggestionsFor(errorType ErrorType) []string {
	switch errorType {
	case ErrorTypeValidation:
		return []string{
			"Review the rejected bytecode for incompatible changes",
			"Re-run validation after correcting the class definition",
		}
	case ErrorTypeRedefinition:
		return []string{
			"Roll back to the previous class definition",
			"Check runtime logs for the underlying redefinition error",
		}
	case ErrorTypeInstanceUpdate:
		return []string{
			"Verify the instance migration method for the class",
			"Preserve current instances and retry the update",
		}
	case ErrorTypeResourceExhaustion:
		return []string{
			"Free memory or raise limits before retrying the swap",
			"Reduce the snapshot window size to lower capture overhead",
		}
	default:
		return []string{
			"Inspect the wrapped cause in the debugging report",
			"Reproduce using the captured event snapshot",
		}
	}
}
