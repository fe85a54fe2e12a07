package domain

import (
	"fmt"
)

// ErrorType is the closed classification taxonomy for faults
type ErrorType string

// ErrorType constants
const (
	ErrorTypeValidation         ErrorType = "VALIDATION_ERROR"
	ErrorTypeRedefinition       ErrorType = "REDEFINITION_FAILURE"
	ErrorTypeInstanceUpdate     ErrorType = "INSTANCE_UPDATE_ERROR"
	ErrorTypeResourceExhaustion ErrorType = "RESOURCE_EXHAUSTION"
	ErrorTypeWrapped            ErrorType = "WRAPPED_ERROR"
	ErrorTypeUnknown            ErrorType = "UNKNOWN_ERROR"
)

// Severity is the ordinal severity of a fault
type Severity int

// Severity levels, ordered
const (
	SeverityWarning Severity = iota + 1
	SeverityError
	SeverityCritical
)

// String returns the severity name
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Fault is the capability contract every fault type satisfies to
// participate in classification and severity dispatch. Every fault carries
// exactly one snapshot+context pair captured at the fault boundary.
type Fault interface {
	error
	Message() string
	Cause() Fault
	Snapshot() *EventSnapshot
	Context() *ErrorContext
	AcceptClassifier(c *Classifier) ErrorType
	AcceptSeverityAssessor(a *SeverityAssessor) Severity
}

// faultBase holds the fields common to all fault types
type faultBase struct {
	message  string
	snapshot *EventSnapshot
	context  *ErrorContext
}

func (f *faultBase) Error() string            { return f.message }
func (f *faultBase) Message() string          { return f.message }
func (f *faultBase) Cause() Fault             { return nil }
func (f *faultBase) Snapshot() *EventSnapshot { return f.snapshot }
func (f *faultBase) Context() *ErrorContext   { return f.context }

// ValidationFault reports bytecode that failed validation
type ValidationFault struct {
	faultBase
	ClassName string
	Reason    string
}

// NewValidationFault creates a validation fault
func NewValidationFault(className, reason string, snapshot *EventSnapshot, context *ErrorContext) *ValidationFault {
	return &ValidationFault{
		faultBase: faultBase{
			message:  fmt.Sprintf("bytecode validation failed for %s: %s", className, reason),
			snapshot: snapshot,
			context:  context,
		},
		ClassName: className,
		Reason:    reason,
	}
}

// RedefinitionFault reports a class redefinition rejected by the runtime
type RedefinitionFault struct {
	faultBase
	ClassName     string
	FailureReason string
	RuntimeError  string
}

// NewRedefinitionFault creates a redefinition fault
func NewRedefinitionFault(className, failureReason, runtimeError string, snapshot *EventSnapshot, context *ErrorContext) *RedefinitionFault {
	return &RedefinitionFault{
		faultBase: faultBase{
			message:  fmt.Sprintf("class redefinition failed for %s: %s (runtime error: %s)", className, failureReason, runtimeError),
			snapshot: snapshot,
			context:  context,
		},
		ClassName:     className,
		FailureReason: failureReason,
		RuntimeError:  runtimeError,
	}
}

// InstanceUpdateFault reports a failure migrating live instances
type InstanceUpdateFault struct {
	faultBase
	ClassName       string
	FailedInstances int
}

// NewInstanceUpdateFault creates an instance update fault
func NewInstanceUpdateFault(className string, failedInstances int, snapshot *EventSnapshot, context *ErrorContext) *InstanceUpdateFault {
	return &InstanceUpdateFault{
		faultBase: faultBase{
			message:  fmt.Sprintf("instance update failed for %s: %d instances not migrated", className, failedInstances),
			snapshot: snapshot,
			context:  context,
		},
		ClassName:       className,
		FailedInstances: failedInstances,
	}
}

// ResourceExhaustionFault reports memory or similar resource pressure
type ResourceExhaustionFault struct {
	faultBase
	Resource     string
	UsagePercent float64
}

// NewResourceExhaustionFault creates a resource exhaustion fault
func NewResourceExhaustionFault(resource string, usagePercent float64, snapshot *EventSnapshot, context *ErrorContext) *ResourceExhaustionFault {
	return &ResourceExhaustionFault{
		faultBase: faultBase{
			message:  fmt.Sprintf("resource exhaustion: %s at %.1f%%", resource, usagePercent*100),
			snapshot: snapshot,
			context:  context,
		},
		Resource:     resource,
		UsagePercent: usagePercent,
	}
}

// ContextualFault wraps an arbitrary error with the snapshot+context pair
// captured at the fault boundary
type ContextualFault struct {
	faultBase
	cause error
}

// WrapFault wraps an error in a contextual fault
func WrapFault(cause error, snapshot *EventSnapshot, context *ErrorContext) *ContextualFault {
	message := "fault captured with no cause"
	if cause != nil {
		message = cause.Error()
	}
	return &ContextualFault{
		faultBase: faultBase{
			message:  message,
			snapshot: snapshot,
			context:  context,
		},
		cause: cause,
	}
}

// Cause returns the wrapped cause when it is itself a fault
func (f *ContextualFault) Cause() Fault {
	if inner, ok := f.cause.(Fault); ok {
		return inner
	}
	return nil
}

// Unwrap supports errors.Is and errors.As
func (f *ContextualFault) Unwrap() error {
	return f.cause
}

// WrappedErr returns the raw wrapped error, classifiable or not
func (f *ContextualFault) WrappedErr() error {
	return f.cause
}
