package domain

// Classifier maps fault instances onto the closed ErrorType taxonomy.
// Dispatch is double dispatch: faults accept the classifier and call the
// case for their own kind, so adding a fault kind means adding one method
// here plus its accept implementation, never touching call sites.
type Classifier struct{}

// NewClassifier creates a classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the error type for a fault. It is pure and total: nil
// or unrecognized faults classify as unknown rather than failing.
func (c *Classifier) Classify(fault Fault) ErrorType {
	if fault == nil {
		return ErrorTypeUnknown
	}
	return fault.AcceptClassifier(c)
}

// ClassifyValidation classifies a bytecode validation fault
func (c *Classifier) ClassifyValidation(_ *ValidationFault) ErrorType {
	return ErrorTypeValidation
}

// ClassifyRedefinition classifies a class redefinition fault
func (c *Classifier) ClassifyRedefinition(_ *RedefinitionFault) ErrorType {
	return ErrorTypeRedefinition
}

// ClassifyInstanceUpdate classifies an instance update fault
func (c *Classifier) ClassifyInstanceUpdate(_ *InstanceUpdateFault) ErrorType {
	return ErrorTypeInstanceUpdate
}

// ClassifyResourceExhaustion classifies a resource exhaustion fault
func (c *Classifier) ClassifyResourceExhaustion(_ *ResourceExhaustionFault) ErrorType {
	return ErrorTypeResourceExhaustion
}

// ClassifyContextual classifies a contextual wrapper. A classifiable cause
// is delegated to recursively; anything else falls back to the generic
// wrapped classification.
func (c *Classifier) ClassifyContextual(fault *ContextualFault) ErrorType {
	if cause := fault.Cause(); cause != nil {
		return cause.AcceptClassifier(c)
	}
	return ErrorTypeWrapped
}

// AcceptClassifier implementations, one per fault kind

func (f *ValidationFault) AcceptClassifier(c *Classifier) ErrorType {
	return c.ClassifyValidation(f)
}

func (f *RedefinitionFault) AcceptClassifier(c *Classifier) ErrorType {
	return c.ClassifyRedefinition(f)
}

func (f *InstanceUpdateFault) AcceptClassifier(c *Classifier) ErrorType {
	return c.ClassifyInstanceUpdate(f)
}

func (f *ResourceExhaustionFault) AcceptClassifier(c *Classifier) ErrorType {
	return c.ClassifyResourceExhaustion(f)
}

func (f *ContextualFault) AcceptClassifier(c *Classifier) ErrorType {
	return c.ClassifyContextual(f)
}
