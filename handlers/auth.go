package handlers

import (
	"example.com/hotswap/services/recovery/domain"
)

// ConfigAuthorizationProvider approves automatic execution of high-risk
// strategies from a fixed allowlist loaded at startup. Anything not on the
// list stays "recommended but not executed" for an operator.
type ConfigAuthorizationProvider struct {
	approved map[domain.Strategy]bool
}

// NewConfigAuthorizationProvider creates a provider from strategy names
func NewConfigAuthorizationProvider(strategies []string) *ConfigAuthorizationProvider {
	approved := make(map[domain.Strategy]bool, len(strategies))
	for _, name := range strategies {
		approved[domain.Strategy(name)] = true
	}
	return &ConfigAuthorizationProvider{approved: approved}
}

// AuthorizeHighRisk reports whether the strategy is on the allowlist
func (p *ConfigAuthorizationProvider) AuthorizeHighRisk(strategy domain.Strategy) bool {
	return p.approved[strategy]
}
