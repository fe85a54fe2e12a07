package domain

// RiskLevel tags a recovery strategy's blast radius
type RiskLevel string

// Risk levels
const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Strategy is a named recovery action. Strategies are selected and gated
// here; execution belongs to an external executor.
type Strategy string

// Strategy constants
const (
	StrategyRollbackChanges      Strategy = "ROLLBACK_CHANGES"
	StrategyPreserveCurrentState Strategy = "PRESERVE_CURRENT_STATE"
	StrategyRejectChange         Strategy = "REJECT_CHANGE"
	StrategyRetryOperation       Strategy = "RETRY_OPERATION"
	StrategyEmergencyShutdown    Strategy = "EMERGENCY_SHUTDOWN"
	StrategyFallbackMode         Strategy = "FALLBACK_MODE"
	StrategyManualIntervention   Strategy = "MANUAL_INTERVENTION"
	StrategyRestartService       Strategy = "RESTART_SERVICE"
	StrategyApplyHotfix          Strategy = "APPLY_HOTFIX"
	StrategyNoAction             Strategy = "NO_ACTION"
)

// StrategyAttributes are the fixed, non-overridable properties of a strategy
type StrategyAttributes struct {
	Description             string
	Risk                    RiskLevel
	Automatic               bool
	Destructive             bool
	ModifiesState           bool
	RequiresImmediateAction bool
}

var strategyAttributes = map[Strategy]StrategyAttributes{
	StrategyNoAction: {
		Description: "No recovery action required",
		Risk:        RiskLow,
		Automatic:   true,
	},
	StrategyPreserveCurrentState: {
		Description: "Keep current state and skip the update",
		Risk:        RiskLow,
		Automatic:   true,
	},
	StrategyRejectChange: {
		Description: "Refuse the change and maintain current state",
		Risk:        RiskLow,
		Automatic:   true,
	},
	StrategyRetryOperation: {
		Description:   "Attempt the operation again with fresh state",
		Risk:          RiskMedium,
		Automatic:     true,
		ModifiesState: true,
	},
	StrategyFallbackMode: {
		Description: "Continue with degraded functionality",
		Risk:        RiskMedium,
		Automatic:   true,
	},
	StrategyApplyHotfix: {
		Description:   "Apply a corrective hot-swap on top of the failed one",
		Risk:          RiskMedium,
		Automatic:     true,
		ModifiesState: true,
	},
	StrategyRollbackChanges: {
		Description:             "Restore the previous known good state",
		Risk:                    RiskHigh,
		Automatic:               true,
		Destructive:             true,
		ModifiesState:           true,
		RequiresImmediateAction: true,
	},
	StrategyEmergencyShutdown: {
		Description:             "Shut down immediately to prevent damage",
		Risk:                    RiskHigh,
		Automatic:               true,
		Destructive:             true,
		RequiresImmediateAction: true,
	},
	StrategyRestartService: {
		Description:             "Restart the affected service",
		Risk:                    RiskHigh,
		Automatic:               true,
		Destructive:             true,
		ModifiesState:           true,
		RequiresImmediateAction: true,
	},
	StrategyManualIntervention: {
		Description:             "Escalate to a human operator",
		Risk:                    RiskHigh,
		Automatic:               false,
		RequiresImmediateAction: true,
	},
}

// Attributes returns the fixed attributes of the strategy. Unknown
// strategies report the NO_ACTION attributes.
func (s Strategy) Attributes() StrategyAttributes {
	if attrs, ok := strategyAttributes[s]; ok {
		return attrs
	}
	return strategyAttributes[StrategyNoAction]
}

// AllStrategies returns every strategy in the closed enumeration
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyRollbackChanges,
		StrategyPreserveCurrentState,
		StrategyRejectChange,
		StrategyRetryOperation,
		StrategyEmergencyShutdown,
		StrategyFallbackMode,
		StrategyManualIntervention,
		StrategyRestartService,
		StrategyApplyHotfix,
		StrategyNoAction,
	}
}

// AuthorizationProvider gates automatic execution of high-risk strategies
type AuthorizationProvider interface {
	AuthorizeHighRisk(strategy Strategy) bool
}

type selectionKey struct {
	errorType ErrorType
	severity  Severity
}

// Selector maps (ErrorType, Severity) pairs to recovery strategies using a
// fixed table. It is stateless once constructed and safe to share.
type Selector struct {
	table map[selectionKey]Strategy
}

// NewSelector creates a selector with the default strategy table
func NewSelector() *Selector {
	return &Selector{
		table: map[selectionKey]Strategy{
			{ErrorTypeValidation, SeverityWarning}:          StrategyRejectChange,
			{ErrorTypeValidation, SeverityError}:            StrategyRejectChange,
			{ErrorTypeValidation, SeverityCritical}:         StrategyRejectChange,
			{ErrorTypeRedefinition, SeverityWarning}:        StrategyRetryOperation,
			{ErrorTypeRedefinition, SeverityError}:          StrategyRollbackChanges,
			{ErrorTypeRedefinition, SeverityCritical}:       StrategyRollbackChanges,
			{ErrorTypeInstanceUpdate, SeverityWarning}:      StrategyRetryOperation,
			{ErrorTypeInstanceUpdate, SeverityError}:        StrategyPreserveCurrentState,
			{ErrorTypeInstanceUpdate, SeverityCritical}:     StrategyRollbackChanges,
			{ErrorTypeResourceExhaustion, SeverityWarning}:  StrategyFallbackMode,
			{ErrorTypeResourceExhaustion, SeverityError}:    StrategyFallbackMode,
			{ErrorTypeResourceExhaustion, SeverityCritical}: StrategyEmergencyShutdown,
			{ErrorTypeWrapped, SeverityWarning}:             StrategyRetryOperation,
			{ErrorTypeWrapped, SeverityError}:               StrategyRetryOperation,
			{ErrorTypeWrapped, SeverityCritical}:            StrategyManualIntervention,
			{ErrorTypeUnknown, SeverityError}:               StrategyManualIntervention,
			{ErrorTypeUnknown, SeverityCritical}:            StrategyEmergencyShutdown,
		},
	}
}

// Select returns the strategy for the given classification. Unmapped
// combinations select NO_ACTION; selection never fails.
func (s *Selector) Select(errorType ErrorType, severity Severity) Strategy {
	if strategy, ok := s.table[selectionKey{errorType, severity}]; ok {
		return strategy
	}
	return StrategyNoAction
}

// CanExecuteAutomatically reports whether the strategy may run without an
// operator. Non-automatic strategies never qualify. High-risk strategies
// require the injected authorization provider to approve; low and medium
// risk strategies qualify unconditionally.
func (s *Selector) CanExecuteAutomatically(strategy Strategy, auth AuthorizationProvider) bool {
	attrs := strategy.Attributes()
	if !attrs.Automatic {
		return false
	}
	if attrs.Risk == RiskHigh {
		return auth != nil && auth.AuthorizeHighRisk(strategy)
	}
	return true
}
