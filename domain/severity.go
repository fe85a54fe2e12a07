package domain

// SeverityAssessor maps fault instances onto severity levels. It mirrors
// the classifier's dispatch shape and is a pure function of the fault.
type SeverityAssessor struct{}

// NewSeverityAssessor creates a severity assessor
func NewSeverityAssessor() *SeverityAssessor {
	return &SeverityAssessor{}
}

// Assess returns the severity for a fault, defaulting to ERROR for nil or
// unrecognized faults so assessment is total.
func (a *SeverityAssessor) Assess(fault Fault) Severity {
	if fault == nil {
		return SeverityError
	}
	return fault.AcceptSeverityAssessor(a)
}

// AssessValidation rates validation failures as recoverable
func (a *SeverityAssessor) AssessValidation(_ *ValidationFault) Severity {
	return SeverityWarning
}

// AssessRedefinition rates redefinition failures as significant but contained
func (a *SeverityAssessor) AssessRedefinition(_ *RedefinitionFault) Severity {
	return SeverityError
}

// AssessInstanceUpdate rates instance update failures as significant
func (a *SeverityAssessor) AssessInstanceUpdate(_ *InstanceUpdateFault) Severity {
	return SeverityError
}

// AssessResourceExhaustion rates resource exhaustion as critical
func (a *SeverityAssessor) AssessResourceExhaustion(_ *ResourceExhaustionFault) Severity {
	return SeverityCritical
}

// AssessContextual delegates to the wrapped cause's severity when the
// cause is itself a fault, else rates the wrapper as ERROR.
func (a *SeverityAssessor) AssessContextual(fault *ContextualFault) Severity {
	if cause := fault.Cause(); cause != nil {
		return cause.AcceptSeverityAssessor(a)
	}
	return SeverityError
}

// AcceptSeverityAssessor implementations, one per fault kind

func (f *ValidationFault) AcceptSeverityAssessor(a *SeverityAssessor) Severity {
	return a.AssessValidation(f)
}

func (f *RedefinitionFault) AcceptSeverityAssessor(a *SeverityAssessor) Severity {
	return a.AssessRedefinition(f)
}

func (f *InstanceUpdateFault) AcceptSeverityAssessor(a *SeverityAssessor) Severity {
	return a.AssessInstanceUpdate(f)
}

func (f *ResourceExhaustionFault) AcceptSeverityAssessor(a *SeverityAssessor) Severity {
	return a.AssessResourceExhaustion(f)
}

func (f *ContextualFault) AcceptSeverityAssessor(a *SeverityAssessor) Severity {
	return a.AssessContextual(f)
}
