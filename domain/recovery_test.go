package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// allowAllAuthorizer approves every high-risk strategy
type allowAllAuthorizer struct{}

func (a *allowAllAuthorizer) AuthorizeHighRisk(_ Strategy) bool { return true }

// denyAllAuthorizer approves nothing
type denyAllAuthorizer struct{}

func (a *denyAllAuthorizer) AuthorizeHighRisk(_ Strategy) bool { return false }

func TestStrategyRiskTiers(t *testing.T) {
	expected := map[Strategy]RiskLevel{
		StrategyNoAction:             RiskLow,
		StrategyPreserveCurrentState: RiskLow,
		StrategyRejectChange:         RiskLow,
		StrategyRetryOperation:       RiskMedium,
		StrategyFallbackMode:         RiskMedium,
		StrategyApplyHotfix:          RiskMedium,
		StrategyRollbackChanges:      RiskHigh,
		StrategyEmergencyShutdown:    RiskHigh,
		StrategyRestartService:       RiskHigh,
		StrategyManualIntervention:   RiskHigh,
	}

	all := AllStrategies()
	require.Len(t, all, len(expected))

	for _, strategy := range all {
		require.Equal(t, expected[strategy], strategy.Attributes().Risk, "strategy %s", strategy)
	}
}

func TestManualInterventionIsNeverAutomatic(t *testing.T) {
	for _, strategy := range AllStrategies() {
		attrs := strategy.Attributes()
		if strategy == StrategyManualIntervention {
			require.False(t, attrs.Automatic)
		} else {
			require.True(t, attrs.Automatic, "strategy %s", strategy)
		}
	}
}

func TestUnknownStrategyFallsBackToNoAction(t *testing.T) {
	attrs := Strategy("SOMETHING_ELSE").Attributes()
	require.Equal(t, StrategyNoAction.Attributes(), attrs)
}

func TestSelectorTable(t *testing.T) {
	selector := NewSelector()

	tests := []struct {
		errorType ErrorType
		severity  Severity
		want      Strategy
	}{
		{ErrorTypeValidation, SeverityWarning, StrategyRejectChange},
		{ErrorTypeValidation, SeverityCritical, StrategyRejectChange},
		{ErrorTypeRedefinition, SeverityWarning, StrategyRetryOperation},
		{ErrorTypeRedefinition, SeverityError, StrategyRollbackChanges},
		{ErrorTypeInstanceUpdate, SeverityError, StrategyPreserveCurrentState},
		{ErrorTypeInstanceUpdate, SeverityCritical, StrategyRollbackChanges},
		{ErrorTypeResourceExhaustion, SeverityError, StrategyFallbackMode},
		{ErrorTypeResourceExhaustion, SeverityCritical, StrategyEmergencyShutdown},
		{ErrorTypeWrapped, SeverityError, StrategyRetryOperation},
		{ErrorTypeWrapped, SeverityCritical, StrategyManualIntervention},
		{ErrorTypeUnknown, SeverityError, StrategyManualIntervention},
		{ErrorTypeUnknown, SeverityCritical, StrategyEmergencyShutdown},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, selector.Select(tt.errorType, tt.severity),
			"%s/%s", tt.errorType, tt.severity)
	}
}

func TestSelectorDefaultsToNoAction(t *testing.T) {
	selector := NewSelector()
	require.Equal(t, StrategyNoAction, selector.Select(ErrorTypeUnknown, SeverityWarning))
	require.Equal(t, StrategyNoAction, selector.Select(ErrorType("NOT_A_TYPE"), SeverityError))
}

func TestCanExecuteAutomatically(t *testing.T) {
	selector := NewSelector()

	// Low and medium risk strategies run without authorization
	require.True(t, selector.CanExecuteAutomatically(StrategyRejectChange, nil))
	require.True(t, selector.CanExecuteAutomatically(StrategyRetryOperation, nil))

	// High risk strategies need the authorization provider to approve
	require.False(t, selector.CanExecuteAutomatically(StrategyRollbackChanges, nil))
	require.False(t, selector.CanExecuteAutomatically(StrategyRollbackChanges, &denyAllAuthorizer{}))
	require.True(t, selector.CanExecuteAutomatically(StrategyRollbackChanges, &allowAllAuthorizer{}))

	// Non-automatic strategies never qualify, authorization or not
	require.False(t, selector.CanExecuteAutomatically(StrategyManualIntervention, &allowAllAuthorizer{}))
}
